// Package controllers handles HTTP request handling
package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// actorFrom returns the authenticated caller set by the JWT middleware
func actorFrom(ctx *gin.Context) services.Actor {
	id, _ := middleware.CredentialID(ctx)
	credentialType, _ := middleware.CredentialType(ctx)
	typeID, _ := middleware.TypeID(ctx)
	return services.Actor{CredentialID: id, Type: credentialType, TypeID: typeID}
}

// parseIDParam parses an ID parameter from the request path
func parseIDParam(ctx *gin.Context, paramName string) (int64, error) {
	idStr := ctx.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("Invalid %s", paramName))
	}
	return id, nil
}

// parseIDsQuery reads repeated or comma separated ids, as in ?ids=1&ids=2
// or ?ids=1,2
func parseIDsQuery(ctx *gin.Context) ([]int64, error) {
	var ids []int64
	for _, raw := range ctx.QueryArray("ids") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid id %s", part))
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseFlagQuery reads a 0/1 query flag, falling back to def when absent
func parseFlagQuery(ctx *gin.Context, name string, def bool) (bool, error) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, apperrors.NewBadRequestError(fmt.Sprintf("Invalid value %s for %s", raw, name))
}

// optional treats an empty string as an absent field
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// optionalDate parses a YYYY-MM-DD field, treating an empty string as absent
func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := helpers.ParseDate(s)
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid date %s", s))
	}
	return &t, nil
}

// affectedMessage is the message of bulk deletes
func affectedMessage(n int64) string {
	return fmt.Sprintf("%d Record(s) affected", n)
}
