package descriptor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
	"github.com/randalmurphal/persistunit/pkg/persistunit/descriptor"
)

func TestJSON_UnitName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		path    string
		want    string
		wantErr error
	}{
		{
			name: "persistence context",
			raw:  `{"persistenceContext":{"unitName":"orders-db"}}`,
			want: "orders-db",
		},
		{
			name: "persistence unit fallback",
			raw:  `{"persistenceUnit":{"unitName":"users-db"}}`,
			want: "users-db",
		},
		{
			name: "context wins over unit",
			raw:  `{"persistenceUnit":{"unitName":"users-db"},"persistenceContext":{"unitName":"orders-db"}}`,
			want: "orders-db",
		},
		{
			name: "custom path",
			raw:  `{"inject":{"target":{"unit":"audit"}}}`,
			path: "inject.target.unit",
			want: "audit",
		},
		{
			name:    "custom path ignores defaults",
			raw:     `{"persistenceContext":{"unitName":"orders-db"}}`,
			path:    "inject.unit",
			wantErr: descriptor.ErrNoUnitName,
		},
		{
			name:    "missing",
			raw:     `{"persistenceContext":{}}`,
			wantErr: descriptor.ErrNoUnitName,
		},
		{
			name:    "empty name",
			raw:     `{"persistenceContext":{"unitName":""}}`,
			wantErr: descriptor.ErrNoUnitName,
		},
		{
			name:    "not a string",
			raw:     `{"persistenceContext":{"unitName":42}}`,
			wantErr: descriptor.ErrNoUnitName,
		},
		{
			name:    "invalid json",
			raw:     `{"persistenceContext":`,
			wantErr: descriptor.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := descriptor.JSON{Raw: []byte(tt.raw), Path: tt.path}.UnitName()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWith(t *testing.T) {
	raw, err := descriptor.With(nil, "orders-db")
	require.NoError(t, err)

	got, err := descriptor.JSON{Raw: raw}.UnitName()
	require.NoError(t, err)
	assert.Equal(t, "orders-db", got)
}

func TestWith_PreservesOtherFields(t *testing.T) {
	raw, err := descriptor.With([]byte(`{"field":"repo","persistenceContext":{"type":"transaction"}}`), "users-db")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"field":"repo","persistenceContext":{"type":"transaction","unitName":"users-db"}}`,
		string(raw))
}

func TestWithPath_Invalid(t *testing.T) {
	_, err := descriptor.WithPath([]byte(`{nope`), descriptor.UnitPath, "x")
	assert.ErrorIs(t, err, descriptor.ErrInvalidDescriptor)
}

// fakeFactory and fakeSession let the descriptor drive Services without a database.
type fakeFactory struct{}

func (fakeFactory) NewSession(context.Context) (persistunit.Session, error) { return fakeSession{}, nil }
func (fakeFactory) Close() error                                          { return nil }

type fakeSession struct{}

func (fakeSession) ID() string   { return "s-1" }
func (fakeSession) Close() error { return nil }

func TestJSON_WithServices(t *testing.T) {
	var built []string
	reg := persistunit.NewRegistry(func(_ context.Context, unit string) (persistunit.Factory, error) {
		built = append(built, unit)
		return fakeFactory{}, nil
	}, persistunit.WithLogger(nil))
	svc := persistunit.NewServices(reg)

	raw, err := descriptor.WithPath(nil, descriptor.UnitPath, "users-db")
	require.NoError(t, err)

	ref := svc.RegisterPersistenceUnitInjectionPoint(descriptor.JSON{Raw: raw}).CreateResource()
	_, err = ref.Instance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users-db"}, built)

	_, err = svc.ResolvePersistenceUnit(context.Background(), descriptor.JSON{Raw: []byte(`{}`)})
	var ie *persistunit.InjectionError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, descriptor.ErrNoUnitName)
}
