package models

type AITool struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	LogoURL     string   `json:"logo_url,omitempty"`
	ToolURL     string   `json:"tool_url"`
	UserId      string   `json:"user_id,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

type Blueprint struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	LogoURL     string   `json:"logo_url,omitempty"`
	DownloadURL string   `json:"download_url"`
	UserId      string   `json:"user_id,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

type Class struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoURL    string   `json:"video_url"`
	UserId      string   `json:"user_id,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// LibraryCategory is a named grouping used by the tool, blueprint and class
// libraries (automation_categories, blueprint_categories, class_categories).
type LibraryCategory struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	UserId    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
