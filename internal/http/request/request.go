// Package request разбирает тело и параметры HTTP-запросов для обработчиков.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/response"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
)

// MsgInvalidBody текст ответа для тела, которое не удалось разобрать.
const MsgInvalidBody = "invalid request body"

// MsgInvalidQuery текст ответа для некорректного параметра запроса.
const MsgInvalidQuery = "invalid query parameter"

// DecodeJSON читает JSON из тела запроса в v. Неизвестные поля считаются ошибкой.
func DecodeJSON(r *http.Request, v any) error {
	const op = "request.DecodeJSON"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty body", op)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Bind декодирует и валидирует тело запроса. При ошибке пишет ответ
// 400 для некорректного JSON или 422 для нарушений валидации и возвращает false.
func Bind(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, v any) bool {
	if err := DecodeJSON(r, v); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgInvalidBody))
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(MsgInvalidBody))
			return false
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return false
	}
	return true
}

// QueryInt возвращает целочисленный параметр запроса или def, если он не задан.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	const op = "request.QueryInt"

	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", op, key, err)
	}
	return v, nil
}

// Paging читает параметры page и limit. Отсутствующие значения заменяются на 1 и 10.
func Paging(r *http.Request) (page, limit int, err error) {
	if page, err = QueryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = QueryInt(r, "limit", 10); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// BadQuery пишет ответ 400 для некорректного параметра запроса.
func BadQuery(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Info("invalid query parameter", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(MsgInvalidQuery))
}

// Fail пишет ответ по ошибке бизнес-логики. Непредвиденные ошибки логируются как Error.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	status, body := response.FromError(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Info(msg, sl.Err(err), slog.Int("status", status))
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// OK пишет успешный ответ с данными и статусом 200.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, response.StatusOKWithData(data))
}

// Created пишет успешный ответ с данными и статусом 201.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(data))
}
