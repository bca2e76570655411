package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
)

// intParam parses a non-negative integer query parameter. Absent is 0.
func intParam(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Newf(errors.InvalidArgument, "%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

// listParam accepts both ?k=a,b and ?k=a&k=b
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func classificationParam(c *gin.Context) (architecture.Classification, error) {
	raw := strings.TrimSpace(c.Query("classification"))
	if raw == "" {
		return "", nil
	}
	cl, ok := architecture.LookupClassification(strings.ToLower(raw))
	if !ok {
		return "", errors.Newf(errors.InvalidArgument, "unknown classification %q", raw)
	}
	return cl, nil
}

func layersParam(c *gin.Context) ([]architecture.Layer, error) {
	var out []architecture.Layer
	for _, raw := range listParam(c, "layers") {
		l, ok := architecture.LookupLayer(strings.ToLower(raw))
		if !ok {
			return nil, errors.Newf(errors.InvalidArgument, "unknown layer %q", raw)
		}
		out = append(out, l)
	}
	return out, nil
}
