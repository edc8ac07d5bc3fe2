package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"coursechat/internal/domain"
	"coursechat/internal/ingest"
)

// AnswerGenerator produces an answer and its sources for one query
type AnswerGenerator interface {
	Generate(ctx context.Context, query, history, providerName, model string) (string, []domain.Source, error)
}

// CourseStore is the slice of the vector store the RAG service needs
type CourseStore interface {
	AddCourse(ctx context.Context, course domain.Course) error
	AddChunks(ctx context.Context, chunks []domain.CourseChunk) error
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// RAGService ties document ingestion, session history and answer
// generation together
type RAGService struct {
	store     CourseStore
	sessions  domain.SessionStore
	generator AnswerGenerator
	processor *ingest.Processor
}

// NewRAGService creates the RAG orchestrator
func NewRAGService(store CourseStore, sessions domain.SessionStore, generator AnswerGenerator, processor *ingest.Processor) *RAGService {
	return &RAGService{
		store:     store,
		sessions:  sessions,
		generator: generator,
		processor: processor,
	}
}

// Query answers a user question, threading conversation history through
// the model and recording the exchange afterwards
func (s *RAGService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		created, err := s.sessions.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = created
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		// A lost session degrades to a fresh conversation
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to load session history")
		history = nil
	}

	answer, sources, err := s.generator.Generate(ctx, req.Query, formatHistory(history), "", "")
	if err != nil {
		return nil, err
	}

	exchange := domain.Exchange{Question: req.Query, Answer: answer}
	if err := s.sessions.Append(ctx, sessionID, exchange); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record exchange")
	}

	return &domain.QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

// History returns a session's retained exchanges
func (s *RAGService) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	return s.sessions.History(ctx, sessionID)
}

// ClearSession drops a session's history
func (s *RAGService) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// Stats returns the course analytics shown by the courses endpoint
func (s *RAGService) Stats(ctx context.Context) (*domain.CourseStats, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &domain.CourseStats{TotalCourses: count, CourseTitles: titles}, nil
}

// AddCourseFile ingests one course document into the store
func (s *RAGService) AddCourseFile(ctx context.Context, path string) (*domain.Course, int, error) {
	course, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}
	if err := s.store.AddCourse(ctx, *course); err != nil {
		return nil, 0, fmt.Errorf("failed to store course metadata: %w", err)
	}
	if err := s.store.AddChunks(ctx, chunks); err != nil {
		return nil, 0, fmt.Errorf("failed to store course chunks: %w", err)
	}
	return course, len(chunks), nil
}

// AddCourseFolder ingests every course document in a directory, skipping
// titles already present in the store. It returns the number of courses
// and chunks added.
func (s *RAGService) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read docs directory: %w", err)
	}

	existing := map[string]bool{}
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list existing courses: %w", err)
	}
	for _, title := range titles {
		existing[title] = true
	}

	var coursesAdded, chunksAdded int
	for _, entry := range entries {
		if entry.IsDir() || !isCourseDocument(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		course, chunks, err := s.processor.ProcessFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping unreadable course document")
			continue
		}
		if existing[course.Title] {
			continue
		}

		if err := s.store.AddCourse(ctx, *course); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("failed to store course %q: %w", course.Title, err)
		}
		if err := s.store.AddChunks(ctx, chunks); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("failed to store chunks for %q: %w", course.Title, err)
		}

		existing[course.Title] = true
		coursesAdded++
		chunksAdded += len(chunks)
		log.Info().Str("course", course.Title).Int("chunks", len(chunks)).Msg("course ingested")
	}
	return coursesAdded, chunksAdded, nil
}

func isCourseDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func formatHistory(history []domain.Exchange) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", ex.Question, ex.Answer)
	}
	return b.String()
}
