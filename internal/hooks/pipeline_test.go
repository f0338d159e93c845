package hooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
	"github.com/ngenohkevin/lmsdesk/internal/config"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

// upstreamLibrary serves the books endpoints of the library API from memory.
type upstreamLibrary struct {
	mu    sync.Mutex
	books []models.Book
	hits  map[string]int
}

func newUpstreamLibrary(n int) *upstreamLibrary {
	u := &upstreamLibrary{hits: map[string]int{}}
	for i := 1; i <= n; i++ {
		u.books = append(u.books, models.Book{ID: int64(i), Title: "Book " + strconv.Itoa(i), TotalQuantity: 1, AvailableQuantity: 1})
	}
	return u
}

func (u *upstreamLibrary) hit(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hits[name]++
}

func (u *upstreamLibrary) count(name string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[name]
}

func (u *upstreamLibrary) find(c *gin.Context) (int, bool) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	for i, b := range u.books {
		if b.ID == id {
			return i, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"status": 404, "message": "Livro não encontrado", "path": c.Request.URL.Path})
	return 0, false
}

func (u *upstreamLibrary) router() *gin.Engine {
	r := gin.New()

	r.GET("/books", func(c *gin.Context) {
		u.hit("list")
		u.mu.Lock()
		defer u.mu.Unlock()

		page, _ := strconv.Atoi(c.Query("page"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
		if page == repository.UnpagedSentinel {
			c.JSON(http.StatusOK, u.books)
			return
		}
		start := min(page*size, len(u.books))
		end := min(start+size, len(u.books))
		c.JSON(http.StatusOK, models.NewPage(append([]models.Book(nil), u.books[start:end]...), page, size, int64(len(u.books))))
	})

	r.GET("/books/:id", func(c *gin.Context) {
		u.hit("get")
		u.mu.Lock()
		defer u.mu.Unlock()
		if i, ok := u.find(c); ok {
			c.JSON(http.StatusOK, u.books[i])
		}
	})

	r.POST("/books", func(c *gin.Context) {
		u.hit("create")
		var req models.CreateBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		book := models.Book{
			ID:                int64(len(u.books) + 1),
			Title:             req.Title,
			Author:            req.Author,
			TotalQuantity:     req.TotalQuantity,
			AvailableQuantity: req.TotalQuantity,
		}
		u.books = append(u.books, book)
		c.JSON(http.StatusCreated, book)
	})

	r.PUT("/books/:id", func(c *gin.Context) {
		u.hit("update")
		var req models.UpdateBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		i, ok := u.find(c)
		if !ok {
			return
		}
		if req.ISBN != nil {
			c.JSON(http.StatusConflict, gin.H{"status": 409, "message": "isbn already exists"})
			return
		}
		if req.Title != nil {
			u.books[i].Title = *req.Title
		}
		c.JSON(http.StatusOK, u.books[i])
	})

	return r
}

// PipelineTestSuite drives the hooks through the real client, repository
// and manager against an in-memory library API.
type PipelineTestSuite struct {
	suite.Suite
	upstream *upstreamLibrary
	server   *httptest.Server
	books    *Books
	ctx      context.Context
}

func (s *PipelineTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.upstream = newUpstreamLibrary(5)
	s.server = httptest.NewServer(s.upstream.router())
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := apiclient.New(config.APIConfig{BaseURL: s.server.URL, Timeout: 2 * time.Second}, logger)
	svc := services.NewBookService(repository.NewBookRepository(api))
	s.books = NewBooks(newClient(s.T()), svc)
}

func (s *PipelineTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *PipelineTestSuite) TestCreateThenList() {
	page, err := s.books.List(s.ctx, 0, 10, repository.BookFilters{})
	s.Require().NoError(err)
	s.Len(page.Content, 5)
	s.NoError(page.Validate())

	_, err = s.books.List(s.ctx, 0, 10, repository.BookFilters{})
	s.Require().NoError(err)
	s.Equal(1, s.upstream.count("list"))

	created, err := s.books.Create(s.ctx, models.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", TotalQuantity: 2})
	s.Require().NoError(err)
	s.Equal(int64(6), created.ID)
	s.Equal(2, created.AvailableQuantity)

	page, err = s.books.List(s.ctx, 0, 10, repository.BookFilters{})
	s.Require().NoError(err)
	s.Len(page.Content, 6)
	s.Equal(int64(6), page.TotalElements)
	s.Equal(2, s.upstream.count("list"))
}

func (s *PipelineTestSuite) TestSecondPage() {
	page, err := s.books.List(s.ctx, 1, 2, repository.BookFilters{})
	s.Require().NoError(err)
	s.Equal(3, page.TotalPages)
	s.Equal(int64(3), page.Content[0].ID)
	s.True(page.HasNext())
}

func (s *PipelineTestSuite) TestFailedUpdateKeepsCache() {
	before, err := s.books.Detail(s.ctx, 2)
	s.Require().NoError(err)

	isbn := "978-0441172719"
	_, err = s.books.Update(s.ctx, 2, models.UpdateBookRequest{ISBN: &isbn})
	s.ErrorIs(err, apiclient.ErrConflict)

	var httpErr *apiclient.HTTPError
	s.Require().ErrorAs(err, &httpErr)
	s.Equal("isbn already exists", httpErr.Message)

	after, err := s.books.Detail(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Equal(1, s.upstream.count("get"))
}

func (s *PipelineTestSuite) TestUpdateRefreshesDetail() {
	_, err := s.books.Detail(s.ctx, 3)
	s.Require().NoError(err)

	title := "Renamed"
	_, err = s.books.Update(s.ctx, 3, models.UpdateBookRequest{Title: &title})
	s.Require().NoError(err)

	book, err := s.books.Detail(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal("Renamed", book.Title)
}

func (s *PipelineTestSuite) TestDetailNotFound() {
	_, err := s.books.Detail(s.ctx, 99)
	s.ErrorIs(err, apiclient.ErrNotFound)
	s.Equal(1, s.upstream.count("get"))
}

func (s *PipelineTestSuite) TestInvalidCreateNeverReachesUpstream() {
	_, err := s.books.Create(s.ctx, models.CreateBookRequest{TotalQuantity: 1})

	var validationErr *models.ValidationError
	s.ErrorAs(err, &validationErr)
	s.Zero(s.upstream.count("create"))
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}
