package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type RemoteValidationService struct {
	inner     RemoteService
	validator validators.Validator
}

func NewRemoteValidationService() RemoteServiceWrapper {
	return &RemoteValidationService{
		validator: validators.NewRemoteRequestValidator(),
	}
}

func (v *RemoteValidationService) ApplyMutation(ctx context.Context, req models.MutationRequest) (models.MutationAck, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.MutationAck{}, fmt.Errorf("error during mutation validation before applying: %w", err)
	}

	return v.inner.ApplyMutation(ctx, req)
}

func (v *RemoteValidationService) Deltas(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.PullResponse{}, fmt.Errorf("error during pull validation: %w", err)
	}

	return v.inner.Deltas(ctx, req)
}

func (v *RemoteValidationService) Subscribe(ctx context.Context, collections []string) iter.Seq[models.RemoteDelta] {
	return v.inner.Subscribe(ctx, collections)
}

func (v *RemoteValidationService) AppliedCount(token string) int {
	return v.inner.AppliedCount(token)
}

func (v *RemoteValidationService) Wrap(wrapper RemoteService) RemoteService {
	v.inner = wrapper
	return v
}
