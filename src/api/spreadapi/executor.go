package spreadapi

import (
	"net/http"

	"github.com/kshitijsingla/chain-viewer/src/api"
	"github.com/kshitijsingla/chain-viewer/src/models"
)

// SpreadRequest wraps the calculator input with the request plumbing.
type SpreadRequest struct {
	api.BaseRequest
	models.CreditSpreadRequest
}

type SpreadRequestExecutor struct{}

func (s *SpreadRequestExecutor) Serve(r *http.Request, request api.ApiRequest) (chan interface{}, chan error) {
	resultCh := make(chan interface{}, 1)
	errorCh := make(chan error, 1)

	req, ok := request.(*SpreadRequest)
	if !ok {
		errorCh <- models.ErrInvalidRequestType
		return resultCh, errorCh
	}

	go func() {
		resultCh <- req.CreditSpreadRequest.Analyze()
	}()

	return resultCh, errorCh
}
