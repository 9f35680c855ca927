package usecase

// MaxQuestionCount bounds a single challenge question request
const MaxQuestionCount = 20

// DefaultSessionName is used when a session is created without a name
const DefaultSessionName = "New Chat"
