package firestore

import (
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
)

// countValue converts a COUNT aggregation result into int
func countValue(v interface{}) (int, error) {
	switch n := v.(type) {
	case *firestorepb.Value:
		return int(n.GetIntegerValue()), nil
	case int64:
		return int(n), nil
	default:
		return 0, goerr.New("unexpected count aggregation type", goerr.V("value", v))
	}
}
