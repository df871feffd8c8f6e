package dto

// ListMeta is attached to every list response
type ListMeta struct {
	Count int `json:"count"`
}

// EmptyRequest is used by endpoints without a body
type EmptyRequest struct{}
