package services

import (
	"errors"
	"fmt"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/models"
)

// HelpdeskEmail is where users are sent when the endpoint keeps failing.
const HelpdeskEmail = "helpdesk@obis.org"

const msgNoConnection = "No internet connection"

func noConnection() models.SyncResult {
	return models.SyncResult{Err: &models.SyncError{Kind: models.KindNoConnection, Message: msgNoConnection}}
}

func failed(se *models.SyncError) models.SyncResult {
	return models.SyncResult{Err: se}
}

func storageFault(what string, err error) *models.SyncError {
	return &models.SyncError{
		Kind:    models.KindStorage,
		Message: fmt.Sprintf("Could not read %s from local storage: %v", what, err),
		Err:     err,
	}
}

// remoteFailure classifies an error returned by client.Client. prefix
// names the operation in the user message for rejected requests, network
// names it for transport failures.
func remoteFailure(err error, prefix, network string) *models.SyncError {
	var re *client.RemoteError
	if errors.As(err, &re) {
		return &models.SyncError{
			Kind:   models.KindRemoteRejected,
			Status: re.StatusCode,
			Message: fmt.Sprintf("%s (%d): %s, please contact %s if the error persists.",
				prefix, re.StatusCode, re.Reason, HelpdeskEmail),
			Err: err,
		}
	}
	return &models.SyncError{
		Kind:    models.KindTransport,
		Message: fmt.Sprintf("%s: %v", network, err),
		Err:     err,
	}
}
