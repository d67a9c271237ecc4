package contract

type NoteRequest struct {
	Title   string  `json:"title" validate:"required,notblank,max=200"`
	Content string  `json:"content" validate:"max=1000000"`
	TagIDs  []int64 `json:"tag_ids" validate:"max=100,dive,gt=0"`
}

type NoteResponse struct {
	ID        int64         `json:"id"`
	UserID    *int64        `json:"user_id,omitempty"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	TagIDs    []int64       `json:"tag_ids"`
	Tags      []TagResponse `json:"tags"`
	Links     []int64       `json:"links"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

type GraphNode struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type GraphEdge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}
