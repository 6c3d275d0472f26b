package newsapi

// Upstream top-headlines response shapes. Most article fields are nullable
// on the wire; defaults are substituted during transform.

type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source      apiSource `json:"source"`
	Author      *string   `json:"author"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	URLToImage  *string   `json:"urlToImage"`
	PublishedAt *string   `json:"publishedAt"`
	Content     *string   `json:"content"`
}

type apiSource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}
