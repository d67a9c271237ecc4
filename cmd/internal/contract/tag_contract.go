package contract

type TagRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
