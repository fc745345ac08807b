package domain

type Advertisement struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateAdvertisementRequest is the POST /adv body. Fields are pointers so a
// missing key can be told apart from an empty string.
type CreateAdvertisementRequest struct {
	Title       *string `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"required"`
}
