package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestApproverServiceLifecycle(t *testing.T) {
	repo := &fakeApproverRepo{}
	dir := newFakeDirectory(domain.Employee{ID: "T7", Name: "Tech Seven", Department: "MIS", JobTitle: "MIS Support Technician"})
	svc := NewApproverService(repo, dir, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, supervisor("S1"), "T7", domain.ApproverKindTechnician)
	require.NoError(t, err)
	assert.Equal(t, "Tech Seven", created.Name)
	assert.NotZero(t, created.ID)

	_, err = svc.Create(ctx, supervisor("S1"), "T7", domain.ApproverKindTechnician)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.Create(ctx, supervisor("S1"), "T7", domain.ApproverKindSeniorApprover)
	require.NoError(t, err)

	kind := domain.ApproverKindTechnician
	items, err := svc.List(ctx, &kind)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, svc.Delete(ctx, supervisor("S1"), created.ID))
	err = svc.Delete(ctx, supervisor("S1"), created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestApproverServiceRequiresSupervisor(t *testing.T) {
	svc := NewApproverService(&fakeApproverRepo{}, newFakeDirectory(), nil)
	_, err := svc.Create(context.Background(), technician("T1"), "T7", domain.ApproverKindTechnician)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(svc.Delete(context.Background(), nil, 1), apperrors.CodeUnauthorized))
}

func TestApproverServiceValidation(t *testing.T) {
	svc := NewApproverService(&fakeApproverRepo{}, newFakeDirectory(), nil)
	_, err := svc.Create(context.Background(), supervisor("S1"), "ghost", domain.ApproverKindTechnician)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Create(context.Background(), supervisor("S1"), "T7", "JANITOR")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = ParseApproverKind("senior_approver")
	require.NoError(t, err)
	_, err = ParseApproverKind("boss")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
