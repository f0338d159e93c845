package models

// LoanStatus values are the library API's wire values.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ATIVO"
	LoanStatusReturned LoanStatus = "DEVOLVIDO"
	LoanStatusOverdue  LoanStatus = "ATRASADO"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusActive, LoanStatusReturned, LoanStatusOverdue:
		return true
	}
	return false
}

// Loan links a user to a borrowed book. Status is computed by the server;
// the only client-driven transition is the return action.
type Loan struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	BookID     int64      `json:"bookId"`
	LoanDate   Date       `json:"dataEmprestimo"`
	DueDate    Date       `json:"dataPrevistaDevolucao"`
	ReturnDate *Date      `json:"dataRealDevolucao,omitempty"`
	Status     LoanStatus `json:"status"`
}

func (l Loan) Returned() bool {
	return l.Status == LoanStatusReturned
}

type CreateLoanRequest struct {
	UserID  int64 `json:"userId" validate:"required,gt=0"`
	BookID  int64 `json:"bookId" validate:"required,gt=0"`
	DueDate *Date `json:"dataPrevistaDevolucao,omitempty"`
}
