package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete a comment",
		Description: "Deletes the comment; its author, the photo's owner, or a moderator only",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/report",
		Summary:     "Report a comment",
		Description: "Flags the comment for moderator review",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReportComment)
}

// === DTOs ===

// CommentIDInput names a comment by ID.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// === Handlers ===

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Comment.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Comment deleted."), nil
}

func (s *Server) handleReportComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Comment.Report(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Comment reported."), nil
}
