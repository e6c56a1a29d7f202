package dto

// AskRequest cuerpo de POST /api/chatbot.
type AskRequest struct {
	Question string `json:"question" example:"How many invoices did we issue last month?"`
}

// AskResponse respuesta del asistente: siempre una frase lista para mostrar.
type AskResponse struct {
	Answer string `json:"answer" example:"You issued 12 invoices from April 1, 2024 to April 30, 2024."`
}

// MaxQuestionLength límite de caracteres de una pregunta.
const MaxQuestionLength = 2000
