package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/utica/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func hosted(name string) domain.Dependency {
	return domain.NewHostedDependency(domain.Server{}, "acme", name)
}

func semantic(t *testing.T, raw string) domain.SemanticVersion {
	t.Helper()
	v, err := domain.ParseSemanticVersion(raw)
	require.NoError(t, err)
	return v
}

func TestValidateResolvedAccepts(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockDependencyProvider(ctrl)

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("A"), "1.2.0")
	resolved.Pin(hosted("B"), "2.1.0")

	provider.EXPECT().DependenciesAt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dep domain.Dependency, _ domain.PinnedVersion) ([]ports.Declared, error) {
			if dep.Name() == "A" {
				return []ports.Declared{{Dependency: hosted("B"), Specifier: domain.AtLeast(semantic(t, "2.0.0"))}}, nil
			}
			return nil, nil
		}).AnyTimes()

	roots := []ports.Declared{
		{Dependency: hosted("A"), Specifier: domain.CompatibleWith(semantic(t, "1.0.0"))},
	}

	assert.NoError(t, validateResolved(context.Background(), provider, roots, resolved))
}

func TestValidateResolvedRejectsStalePin(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockDependencyProvider(ctrl)
	provider.EXPECT().DependenciesAt(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("A"), "1.2.0")

	roots := []ports.Declared{
		{Dependency: hosted("A"), Specifier: domain.AtLeast(semantic(t, "2.0.0"))},
	}

	err := validateResolved(context.Background(), provider, roots, resolved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResolvedFileOutdated))
}

func TestValidateResolvedRejectsMissingTransitive(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockDependencyProvider(ctrl)

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("A"), "1.2.0")

	provider.EXPECT().DependenciesAt(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]ports.Declared{{Dependency: hosted("Missing"), Specifier: domain.AnySpecifier()}}, nil).
		AnyTimes()

	roots := []ports.Declared{
		{Dependency: hosted("A"), Specifier: domain.AnySpecifier()},
	}

	err := validateResolved(context.Background(), provider, roots, resolved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResolvedFileOutdated))
}
