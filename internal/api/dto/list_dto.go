package dto

// ListMeta describes the page returned by a list endpoint.
type ListMeta struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	TotalRows   int `json:"total_rows"`
}

// ListResponse wraps one page of rows.
type ListResponse[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}
