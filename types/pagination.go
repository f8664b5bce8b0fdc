package types

import "fmt"

// PaginationMeta describes the position of a page within the full result set.
type PaginationMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// PaginationLinks holds navigation URLs for a paginated collection.
// Previous and Next are empty at the first and last page respectively.
type PaginationLinks struct {
	First    string `json:"first"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Last     string `json:"last"`
}

// Page is a paginated collection envelope.
type Page[T any] struct {
	Items []T             `json:"items"`
	Meta  PaginationMeta  `json:"meta"`
	Links PaginationLinks `json:"links"`
}

// NewPage assembles a paginated envelope for one page of items. link is the
// collection endpoint used to build navigation URLs; when empty the links
// are left blank.
func NewPage[T any](items []T, totalItems, page, limit int, link string) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}

	result := Page[T]{
		Items: items,
		Meta: PaginationMeta{
			TotalItems:   totalItems,
			ItemCount:    len(items),
			ItemsPerPage: limit,
			TotalPages:   totalPages,
			CurrentPage:  page,
		},
	}

	if link != "" {
		result.Links = paginationLinks(link, page, limit, totalPages)
	}
	return result
}

func paginationLinks(link string, page, limit, totalPages int) PaginationLinks {
	links := PaginationLinks{
		First: fmt.Sprintf("%s?page=1&limit=%d", link, limit),
		Last:  fmt.Sprintf("%s?page=%d&limit=%d", link, totalPages, limit),
	}
	if page > 1 {
		links.Previous = fmt.Sprintf("%s?page=%d&limit=%d", link, page-1, limit)
	}
	if page < totalPages {
		links.Next = fmt.Sprintf("%s?page=%d&limit=%d", link, page+1, limit)
	}
	return links
}
