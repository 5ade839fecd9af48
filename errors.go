/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

func newLogger(cfg *Config) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logDate)
	zc.EncoderConfig.ConsoleSeparator = " | "
	zc.OutputPaths = []string{"stdout"}

	if !cfg.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}

func (c *Config) log() *zap.SugaredLogger {
	if c.logger == nil {
		return zap.NewNop().Sugar()
	}

	return c.logger
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	cfg.log().Infof(format, args...)
}

func errorf(cfg *Config, format string, args ...any) {
	cfg.log().Errorf(format, args...)
}

func newPage(prefix, title, body string) string {
	var htmlBody strings.Builder

	prefix = html.EscapeString(prefix)

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(prefix))
	htmlBody.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/app.css">`, prefix))
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><main class=\"notice\"><h1>%s</h1><p>%s</p><a href=\"%s/\">Back to games</a></main></body></html>",
		html.EscapeString(title), html.EscapeString(body), prefix))

	return htmlBody.String()
}

// userMessage turns an error from the game rules or the store into text
// fit for a player.
func userMessage(err error) string {
	var rte *papayoo.RoundTotalError

	switch {
	case errors.As(err, &rte):
		return fmt.Sprintf("The total round score must equal %d points (selected %d).", rte.Expected, rte.Actual)
	case errors.Is(err, papayoo.ErrEmptyRound):
		return "No scores selected."
	case errors.Is(err, papayoo.ErrCardUnavailable):
		return "That card is not available anymore."
	case errors.Is(err, papayoo.ErrUnknownPlayer):
		return "That player is not part of this game."
	case errors.Is(err, papayoo.ErrGameOver):
		return "The game is over."
	case errors.Is(err, papayoo.ErrNoRounds):
		return "There is no round to undo."
	case errors.Is(err, papayoo.ErrInvalidConfig):
		return err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return "This game does not exist anymore."
	default:
		return "An error has occurred. Please try again."
	}
}

func errorMessage(err error) SimpleMessage {
	return SimpleMessage{
		Type:    "error",
		Message: userMessage(err),
	}
}

// statusFor maps an error to the HTTP status returned by the API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, papayoo.ErrRoundTotal),
		errors.Is(err, papayoo.ErrEmptyRound),
		errors.Is(err, papayoo.ErrCardUnavailable),
		errors.Is(err, papayoo.ErrUnknownPlayer),
		errors.Is(err, papayoo.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, papayoo.ErrGameOver),
		errors.Is(err, papayoo.ErrNoRounds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
