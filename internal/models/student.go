package models

// Student is the minimal student record the engine needs
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Email   string `json:"email,omitempty"`
}
