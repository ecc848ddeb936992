package types

import "time"

type UserId uint

type BookmarkId string

// Bookmark is the wire representation of a bookmark row, shared between the
// API controllers, the change feed and the device client.
type Bookmark struct {
	Id        BookmarkId `json:"id"`
	Title     string     `json:"title"`
	Url       string     `json:"url"`
	CreatedAt time.Time  `json:"createdAt"`
}

type CreateBookmarkRequest struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}

type UpdateBookmarkRequest struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}
