package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/service"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func (s *Server) registerPhotoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "uploadPhoto",
		Method:      http.MethodPost,
		Path:        "/api/v1/photos",
		Summary:     "Upload a photo",
		Description: "Stores the raw image in the request body and derives its renditions",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "explorePhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos/explore",
		Summary:     "Explore photos",
		Description: "Returns one page of all photos, newest first",
		Tags:        []string{"Photos"},
	}, s.handleExplorePhotos)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos/feed",
		Summary:     "Get the home feed",
		Description: "Returns one page of photos from followed users, newest first",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhoto",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos/{id}",
		Summary:     "Get a photo",
		Description: "Returns the photo with its author, tags, counters, and timeline neighbors",
		Tags:        []string{"Photos"},
	}, s.handleGetPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePhoto",
		Method:      http.MethodPatch,
		Path:        "/api/v1/photos/{id}",
		Summary:     "Update a photo",
		Description: "Changes the description or comment toggle; owner or moderator only",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePhoto",
		Method:      http.MethodDelete,
		Path:        "/api/v1/photos/{id}",
		Summary:     "Delete a photo",
		Description: "Deletes the photo and its files; owner or moderator only",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportPhoto",
		Method:      http.MethodPost,
		Path:        "/api/v1/photos/{id}/report",
		Summary:     "Report a photo",
		Description: "Flags the photo for moderator review",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReportPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "collectPhoto",
		Method:      http.MethodPost,
		Path:        "/api/v1/photos/{id}/collect",
		Summary:     "Collect a photo",
		Description: "Adds the photo to the signed-in user's collection",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCollectPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "uncollectPhoto",
		Method:      http.MethodDelete,
		Path:        "/api/v1/photos/{id}/collect",
		Summary:     "Uncollect a photo",
		Description: "Removes the photo from the signed-in user's collection",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUncollectPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCollectors",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos/{id}/collectors",
		Summary:     "List collectors",
		Description: "Returns one page of users who collected the photo",
		Tags:        []string{"Photos"},
	}, s.handleListCollectors)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPhotoTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/photos/{id}/tags",
		Summary:     "Tag a photo",
		Description: "Attaches tags by name, creating tags on first use; owner only",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddPhotoTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePhotoTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/photos/{id}/tags/{tagID}",
		Summary:     "Untag a photo",
		Description: "Detaches a tag from the photo; owner or moderator only",
		Tags:        []string{"Photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemovePhotoTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagPhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/photos",
		Summary:     "List photos by tag",
		Description: "Returns the tag and one page of photos carrying it",
		Tags:        []string{"Tags"},
	}, s.handleListTagPhotos)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos/{id}/comments",
		Summary:     "List comments",
		Description: "Returns one page of the photo's comments, oldest first",
		Tags:        []string{"Comments"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "createComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/photos/{id}/comments",
		Summary:     "Post a comment",
		Description: "Posts a comment on the photo, optionally replying to another comment",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateComment)
}

// === DTOs ===

// UploadPhotoInput carries the raw image bytes and the original file name.
type UploadPhotoInput struct {
	XFilename string `header:"X-Filename" doc:"Original file name, used for extension checking"`
	RawBody   []byte
}

// PhotoOutput wraps a single photo for Huma.
type PhotoOutput struct {
	Body *domain.Photo
}

// PhotoIDInput names a photo by ID.
type PhotoIDInput struct {
	ID string `path:"id" doc:"Photo ID"`
}

// PhotoListInput pages through photos related to a photo.
type PhotoListInput struct {
	PhotoIDInput
	PaginationInput
}

// PhotoDetailResponse is a photo page: the photo, its author, tags,
// counters, and the author's neighboring photo IDs.
type PhotoDetailResponse struct {
	Photo          *domain.Photo `json:"photo" doc:"The photo"`
	Author         UserResponse  `json:"author" doc:"The photo's author"`
	Tags           []*domain.Tag `json:"tags" doc:"Tags attached to the photo"`
	CollectorCount int           `json:"collector_count" doc:"Number of users who collected it"`
	CommentCount   int           `json:"comment_count" doc:"Number of comments"`
	PrevID         string        `json:"prev_id,omitempty" doc:"Author's previous photo ID"`
	NextID         string        `json:"next_id,omitempty" doc:"Author's next photo ID"`
}

// PhotoDetailOutput wraps a photo detail for Huma.
type PhotoDetailOutput struct {
	Body PhotoDetailResponse
}

// UpdatePhotoRequest is the request body for photo updates.
// Omitted fields keep their current value.
type UpdatePhotoRequest struct {
	Description *string `json:"description,omitempty" doc:"New description"`
	CanComment  *bool   `json:"can_comment,omitempty" doc:"Whether commenting is enabled"`
}

// UpdatePhotoInput wraps the photo update for Huma.
type UpdatePhotoInput struct {
	PhotoIDInput
	Body UpdatePhotoRequest
}

// AddTagsRequest names the tags to attach.
type AddTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=10,dive,min=1,max=30" doc:"Tag names"`
}

// AddTagsInput wraps the tag attachment for Huma.
type AddTagsInput struct {
	PhotoIDInput
	Body AddTagsRequest
}

// RemoveTagInput names the tag to detach.
type RemoveTagInput struct {
	PhotoIDInput
	TagID string `path:"tagID" doc:"Tag ID"`
}

// TagListOutput wraps the attached tags for Huma.
type TagListOutput struct {
	Body []*domain.Tag
}

// TagNameInput names a tag with page parameters.
type TagNameInput struct {
	Name string `path:"name" doc:"Tag name"`
	PaginationInput
}

// TagPhotosResponse is a tag page: the tag and one page of its photos.
type TagPhotosResponse struct {
	Tag    *domain.Tag              `json:"tag" doc:"The tag"`
	Photos store.Page[*domain.Photo] `json:"photos" doc:"Photos carrying the tag"`
}

// TagPhotosOutput wraps a tag page for Huma.
type TagPhotosOutput struct {
	Body TagPhotosResponse
}

// CreateCommentRequest is the request body for posting a comment.
type CreateCommentRequest struct {
	Body      string `json:"body" validate:"required,min=1,max=500" doc:"Comment text"`
	RepliedID string `json:"replied_id,omitempty" doc:"ID of the comment being replied to"`
}

// CreateCommentInput wraps the comment creation for Huma.
type CreateCommentInput struct {
	PhotoIDInput
	Body CreateCommentRequest
}

// CommentOutput wraps a single comment for Huma.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentPageOutput wraps a page of comments for Huma.
type CommentPageOutput struct {
	Body store.Page[*domain.Comment]
}

// === Handlers ===

func (s *Server) handleUploadPhoto(ctx context.Context, input *UploadPhotoInput) (*PhotoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	photo, err := s.services.Photo.Upload(ctx, userID, input.XFilename, "", input.RawBody)
	if err != nil {
		return nil, err
	}

	return &PhotoOutput{Body: photo}, nil
}

func (s *Server) handleExplorePhotos(ctx context.Context, input *PaginationInput) (*PhotoPageOutput, error) {
	page, err := s.services.Photo.Explore(ctx, input.params())
	if err != nil {
		return nil, err
	}

	return &PhotoPageOutput{Body: *page}, nil
}

func (s *Server) handleGetFeed(ctx context.Context, input *PaginationInput) (*PhotoPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Photo.Feed(ctx, userID, input.params())
	if err != nil {
		return nil, err
	}

	return &PhotoPageOutput{Body: *page}, nil
}

func (s *Server) handleGetPhoto(ctx context.Context, input *PhotoIDInput) (*PhotoDetailOutput, error) {
	detail, err := s.services.Photo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &PhotoDetailOutput{
		Body: PhotoDetailResponse{
			Photo:          detail.Photo,
			Author:         mapUser(detail.Author),
			Tags:           detail.Tags,
			CollectorCount: detail.CollectorCount,
			CommentCount:   detail.CommentCount,
			PrevID:         detail.PrevID,
			NextID:         detail.NextID,
		},
	}, nil
}

func (s *Server) handleUpdatePhoto(ctx context.Context, input *UpdatePhotoInput) (*PhotoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	photo, err := s.services.Photo.Update(ctx, userID, input.ID, service.UpdatePhotoRequest{
		Description: input.Body.Description,
		CanComment:  input.Body.CanComment,
	})
	if err != nil {
		return nil, err
	}

	return &PhotoOutput{Body: photo}, nil
}

func (s *Server) handleDeletePhoto(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Photo.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Photo deleted."), nil
}

func (s *Server) handleReportPhoto(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Photo.Report(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Photo reported."), nil
}

func (s *Server) handleCollectPhoto(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Collect(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Photo collected."), nil
}

func (s *Server) handleUncollectPhoto(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Uncollect(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Photo uncollected."), nil
}

func (s *Server) handleListCollectors(ctx context.Context, input *PhotoListInput) (*UserPageOutput, error) {
	page, err := s.services.Social.Collectors(ctx, input.ID, input.params())
	if err != nil {
		return nil, err
	}

	return &UserPageOutput{Body: *mapPage(page, mapUser)}, nil
}

func (s *Server) handleAddPhotoTags(ctx context.Context, input *AddTagsInput) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Photo.AddTags(ctx, userID, input.ID, service.AddTagsRequest{
		Tags: input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: tags}, nil
}

func (s *Server) handleRemovePhotoTag(ctx context.Context, input *RemoveTagInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Photo.RemoveTag(ctx, userID, input.ID, input.TagID); err != nil {
		return nil, err
	}

	return messageOutput("Tag removed."), nil
}

func (s *Server) handleListTagPhotos(ctx context.Context, input *TagNameInput) (*TagPhotosOutput, error) {
	tag, page, err := s.services.Photo.TagPhotos(ctx, input.Name, input.params())
	if err != nil {
		return nil, err
	}

	return &TagPhotosOutput{
		Body: TagPhotosResponse{
			Tag:    tag,
			Photos: *page,
		},
	}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *PhotoListInput) (*CommentPageOutput, error) {
	page, err := s.services.Comment.List(ctx, input.ID, input.params())
	if err != nil {
		return nil, err
	}

	return &CommentPageOutput{Body: *page}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.Create(ctx, userID, input.ID, service.CreateCommentRequest{
		Body:      input.Body.Body,
		RepliedID: input.Body.RepliedID,
	})
	if err != nil {
		return nil, err
	}

	return &CommentOutput{Body: comment}, nil
}

// === File serving ===

func (s *Server) handleServePhotoFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	data, err := s.services.Photo.File(filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(filename))
	w.Header().Set("Cache-Control", CacheOneWeek)
	_, _ = w.Write(data)
}

func (s *Server) handleServeAvatarFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	data, err := s.services.Account.Avatar(filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(filename))
	w.Header().Set("Cache-Control", CacheOneDay)
	_, _ = w.Write(data)
}

// contentTypeFor picks the MIME type from the file extension. The pipeline
// only ever writes jpg and png files.
func contentTypeFor(filename string) string {
	if len(filename) > 4 && filename[len(filename)-4:] == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}
