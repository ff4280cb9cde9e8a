package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

type ApiRequest interface {
	ParseHTTPRequest(r *http.Request) error
	Validate(r *http.Request) error
	SetRequestID(id uuid.UUID)
	GetRequestID() uuid.UUID
}

// RequestExecutor serves a parsed and validated request on its own
// goroutine, delivering exactly one value on one of the returned channels.
type RequestExecutor interface {
	Serve(r *http.Request, request ApiRequest) (chan interface{}, chan error)
}

// BaseRequest carries the request id; embed it in every ApiRequest.
type BaseRequest struct {
	requestID uuid.UUID
}

func (b *BaseRequest) SetRequestID(id uuid.UUID) {
	b.requestID = id
}

func (b *BaseRequest) GetRequestID() uuid.UUID {
	return b.requestID
}

// ApiRequestHandler parses and validates the request, hands it to the
// executor and writes whichever of the result or error arrives first.
func ApiRequestHandler(req ApiRequest, executor RequestExecutor, w http.ResponseWriter, r *http.Request) {
	if err := req.ParseHTTPRequest(r); err != nil {
		if respErr := SetErrorResponse("parser", 400, err, w); respErr != nil {
			log.Errorf("ApiRequestHandler: failed to set parser error response: %v", respErr)
		}
		return
	}

	if err := req.Validate(r); err != nil {
		if respErr := SetErrorResponse("validation", 400, err, w); respErr != nil {
			log.Errorf("ApiRequestHandler: failed to set validation error response: %v", respErr)
		}
		return
	}

	req.SetRequestID(uuid.New())

	resultCh, errCh := executor.Serve(r, req)

	select {
	case result := <-resultCh:
		if err := SetResponse(&result, w); err != nil {
			log.Errorf("ApiRequestHandler: failed to set response for request %s: %v", req.GetRequestID(), err)
			w.WriteHeader(500)
			return
		}
	case err := <-errCh:
		statusCode, errType := classifyError(err)
		if respErr := SetErrorResponse(errType, statusCode, err, w); respErr != nil {
			log.Errorf("ApiRequestHandler: failed to set error response for request %s: %v", req.GetRequestID(), respErr)
			w.WriteHeader(500)
			return
		}
	case <-r.Context().Done():
		log.Warnf("ApiRequestHandler: request %s canceled: %v", req.GetRequestID(), r.Context().Err())
	}
}

// classifyError maps executor failures onto status codes: upstream data
// problems surface as 404 or 502, anything recognizably internal as 500.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidRequestType):
		return 500, "server"
	case errors.Is(err, models.ErrNoData):
		return 404, "no_data"
	case errors.Is(err, models.ErrNotInSubscription):
		return 502, "vendor"
	default:
		return 502, "vendor"
	}
}
