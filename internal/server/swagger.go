package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs

// @title PhishSentry API
// @version 0.1
// @description Scan URLs for phishing indicators and score their reputation.
// @contact.name PhishSentry Maintainers
// @contact.url https://github.com/phishsentry/phishsentry
// @BasePath /
