package backend

// chatRequest is the POST /api/chat body. Absent fields are sent as
// JSON null, matching what the backend expects.
type chatRequest struct {
	Question *string `json:"question"`
	Image    *string `json:"image"`
	Course   *string `json:"course"`
	Lesson   *string `json:"lesson"`
}

// AnswerResult is a successful chat response.
type AnswerResult struct {
	Answer string   `json:"answer"`
	Images []string `json:"images,omitempty"`
}

// errorBody is the optional error payload on non-success responses.
type errorBody struct {
	Message string `json:"message"`
}

// loginRequest is the POST /api/auth/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued credential.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User is the account attached to a credential.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Course is a catalog entry from GET /api/courses.
type Course struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Lesson is a catalog entry from GET /api/lessons/{courseID}.
type Lesson struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// nullable maps "" to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
