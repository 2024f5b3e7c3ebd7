package models

// Exchange is one accepted question and the answer it produced.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
