package request

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestHTTPError_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("hospital_id is required: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("load request er_1: %w", pgx.ErrNoRows), http.StatusNotFound},
		{errors.New("insert failed"), http.StatusInternalServerError},
		{fmt.Errorf("create request: %w", errors.New("connection reset")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := httpError(tc.err).Code; got != tc.want {
			t.Errorf("httpError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
