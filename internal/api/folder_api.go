package api

import (
	"context"
	"fmt"
)

// File is a Box file entry.
type File struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	SHA1       string `json:"sha1,omitempty"`
	Etag       string `json:"etag,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// Folder is a Box folder entry.
type Folder struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a generic folder entry, either a file or a folder.
type Item struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// ItemCollection is a paginated list of items.
type ItemCollection struct {
	TotalCount int    `json:"total_count"`
	Entries    []Item `json:"entries"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// createFolderRequest is the folder creation payload.
type createFolderRequest struct {
	Name   string       `json:"name"`
	Parent parentFolder `json:"parent"`
}

// renameRequest is the rename payload.
type renameRequest struct {
	Name string `json:"name"`
}

// FolderItems lists the contents of a folder with limit/offset pagination.
// Folder id "0" is the root.
func (c *Client) FolderItems(ctx context.Context, folderID string, limit, offset int) (*ItemCollection, error) {
	if limit <= 0 {
		limit = 100
	}

	var result ItemCollection
	r, err := c.restClient.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetQueryParam("offset", fmt.Sprintf("%d", offset)).
		SetResult(&result).
		Get(fmt.Sprintf("/folders/%s/items", folderID))

	if err != nil {
		return nil, fmt.Errorf("failed to list folder items: %w", err)
	}

	if r.IsError() {
		return nil, parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return &result, nil
}

// CreateFolder creates a folder under the given parent.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	if parentID == "" {
		parentID = "0"
	}

	var result Folder
	r, err := c.restClient.R().
		SetContext(ctx).
		SetBody(createFolderRequest{Name: name, Parent: parentFolder{ID: parentID}}).
		SetResult(&result).
		Post("/folders")

	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	if r.IsError() {
		return nil, parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return &result, nil
}

// DeleteFile deletes a file by id.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	r, err := c.restClient.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/files/%s", fileID))

	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if r.IsError() {
		return parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return nil
}

// RenameFile changes a file's name.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) (*File, error) {
	var result File
	r, err := c.restClient.R().
		SetContext(ctx).
		SetBody(renameRequest{Name: newName}).
		SetResult(&result).
		Put(fmt.Sprintf("/files/%s", fileID))

	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	if r.IsError() {
		return nil, parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return &result, nil
}

// SearchItems runs a content search scoped to the caller's account.
func (c *Client) SearchItems(ctx context.Context, query string, limit, offset int) (*ItemCollection, error) {
	if limit <= 0 {
		limit = 100
	}

	var result ItemCollection
	r, err := c.restClient.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetQueryParam("offset", fmt.Sprintf("%d", offset)).
		SetResult(&result).
		Get("/search")

	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if r.IsError() {
		return nil, parseErrorResponse(r.StatusCode(), r.Header(), r.Body())
	}

	return &result, nil
}
