package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/bookshelf/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// validate はリクエストボディ検証用のバリデーター。
// エラーメッセージにはGoのフィールド名ではなくJSONのキー名を使用する。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate はJSONボディをデコードし、validateタグで検証する。
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) *model.APIError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewInvalidPayloadError("リクエストボディが空です")
		}
		return model.NewInvalidPayloadError(err.Error())
	}

	if err := validate.Struct(dst); err != nil {
		return model.NewValidationFailedError(describeValidationError(err))
	}
	return nil
}

// describeValidationError は検証エラーをフィールドごとの説明に変換する。
func describeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%sは必須です", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%sは%s以下にしてください", fe.Field(), fe.Param()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%sは%s以上にしてください", fe.Field(), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%sは%s以下にしてください", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%sが不正です（%s）", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, ", ")
}

// parseLimit はクエリパラメータlimitを解析する。未指定の場合は0（全件）を返す。
func parseLimit(r *http.Request) (int, *model.APIError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, model.NewValidationFailedError("limitは1以上の整数を指定してください")
	}
	return limit, nil
}
