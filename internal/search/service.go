package search

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is the facade that tries Meilisearch first and falls back to
// the primary database.
type Service struct {
	meili *Meili
	pg    *Postgres
	log   zerolog.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, pg *Postgres, log zerolog.Logger) *Service {
	return &Service{meili: meili, pg: pg, log: log}
}

// Search tries Meilisearch if healthy, otherwise falls back to ILIKE.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn().Err(err).Msg("meilisearch error, falling back to postgres")
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		s.log.Error().Err(err).Msg("postgres search failed")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexNote indexes a note (fire-and-forget to Meilisearch).
func (s *Service) IndexNote(n NoteRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexNote(n); err != nil {
			s.log.Warn().Err(err).Str("note", n.ID).Msg("index note failed")
		}
	}()
}

// IndexBoard indexes a board (fire-and-forget to Meilisearch).
func (s *Service) IndexBoard(b BoardRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexBoard(b); err != nil {
			s.log.Warn().Err(err).Str("board", b.ID).Msg("index board failed")
		}
	}()
}

// DeleteNote removes a note from the search index (fire-and-forget).
func (s *Service) DeleteNote(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteNote(id); err != nil {
			s.log.Warn().Err(err).Str("note", id).Msg("delete note from index failed")
		}
	}()
}

// DeleteBoard removes a board from the search index (fire-and-forget).
func (s *Service) DeleteBoard(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteBoard(id); err != nil {
			s.log.Warn().Err(err).Str("board", id).Msg("delete board from index failed")
		}
	}()
}

// ReindexAll reads every note and board from the database and pushes
// them to Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	notes, boards, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("reindex load failed")
		return
	}
	if err := s.meili.IndexNotes(notes); err != nil {
		s.log.Warn().Err(err).Msg("reindex notes failed")
	}
	if err := s.meili.IndexBoards(boards); err != nil {
		s.log.Warn().Err(err).Msg("reindex boards failed")
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
