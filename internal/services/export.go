package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/ngenohkevin/lmsdesk/internal/models"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "xlsx"
)

// ExportFile is a rendered export ready to be streamed to the browser.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
	RecordCount int
}

type BookExportRow struct {
	ID                int64  `csv:"id"`
	Title             string `csv:"title"`
	Author            string `csv:"author"`
	ISBN              string `csv:"isbn"`
	Genre             string `csv:"genre"`
	Pages             int    `csv:"pages"`
	TotalQuantity     int    `csv:"total_quantity"`
	AvailableQuantity int    `csv:"available_quantity"`
}

type UserExportRow struct {
	ID        int64            `csv:"id"`
	Name      string           `csv:"name"`
	Email     string           `csv:"email"`
	Active    bool             `csv:"active"`
	CreatedAt models.Timestamp `csv:"created_at"`
}

type LoanExportRow struct {
	ID         int64             `csv:"id"`
	UserID     int64             `csv:"user_id"`
	BookID     int64             `csv:"book_id"`
	LoanDate   models.Date       `csv:"loan_date"`
	DueDate    models.Date       `csv:"due_date"`
	ReturnDate string            `csv:"return_date"`
	Status     models.LoanStatus `csv:"status"`
}

type ExportServiceInterface interface {
	Export(ctx context.Context, resource, format string) (*ExportFile, error)
}

// ExportService renders full listings as CSV or Excel. It always reads the
// unpaged listing.
type ExportService struct {
	books BookServiceInterface
	users UserServiceInterface
	loans LoanServiceInterface
	now   func() time.Time
}

func NewExportService(books BookServiceInterface, users UserServiceInterface, loans LoanServiceInterface) *ExportService {
	return &ExportService{
		books: books,
		users: users,
		loans: loans,
		now:   time.Now,
	}
}

func (s *ExportService) Export(ctx context.Context, resource, format string) (*ExportFile, error) {
	if format != FormatCSV && format != FormatExcel {
		return nil, models.NewValidationError("format", "must be one of [csv xlsx]")
	}

	rows, count, err := s.rows(ctx, resource)
	if err != nil {
		return nil, err
	}

	csvData, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV content: %w", err)
	}

	fileName := fmt.Sprintf("%s_export_%s.%s", resource, s.now().Format("20060102_150405"), format)

	if format == FormatCSV {
		return &ExportFile{
			FileName:    fileName,
			ContentType: "text/csv",
			Data:        csvData,
			RecordCount: count,
		}, nil
	}

	xlsx, err := csvToExcel(resource, csvData)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		FileName:    fileName,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        xlsx,
		RecordCount: count,
	}, nil
}

func (s *ExportService) rows(ctx context.Context, resource string) (any, int, error) {
	switch resource {
	case "books":
		books, err := s.books.AllBooks(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get books for export: %w", err)
		}
		rows := make([]BookExportRow, 0, len(books))
		for _, b := range books {
			rows = append(rows, BookExportRow{
				ID:                b.ID,
				Title:             b.Title,
				Author:            b.Author,
				ISBN:              b.ISBN,
				Genre:             b.Genre,
				Pages:             b.Pages,
				TotalQuantity:     b.TotalQuantity,
				AvailableQuantity: b.AvailableQuantity,
			})
		}
		return rows, len(rows), nil

	case "users":
		users, err := s.users.AllUsers(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get users for export: %w", err)
		}
		rows := make([]UserExportRow, 0, len(users))
		for _, u := range users {
			rows = append(rows, UserExportRow{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Active:    u.Active,
				CreatedAt: u.CreatedAt,
			})
		}
		return rows, len(rows), nil

	case "loans":
		loans, err := s.loans.AllLoans(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get loans for export: %w", err)
		}
		rows := make([]LoanExportRow, 0, len(loans))
		for _, l := range loans {
			row := LoanExportRow{
				ID:       l.ID,
				UserID:   l.UserID,
				BookID:   l.BookID,
				LoanDate: l.LoanDate,
				DueDate:  l.DueDate,
				Status:   l.Status,
			}
			if l.ReturnDate != nil {
				row.ReturnDate = l.ReturnDate.String()
			}
			rows = append(rows, row)
		}
		return rows, len(rows), nil
	}

	return nil, 0, models.NewValidationError("resource", "must be one of [books users loans]")
}

// csvToExcel copies CSV records into a single-sheet workbook.
func csvToExcel(sheet string, csvData []byte) ([]byte, error) {
	records, err := csv.NewReader(bytes.NewReader(csvData)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
