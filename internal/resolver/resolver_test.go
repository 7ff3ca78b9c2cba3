package resolver_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nikolayk812/storefront/internal/cartstate"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/fakeapi"
	"github.com/nikolayk812/storefront/internal/resolver"
	"github.com/nikolayk812/storefront/internal/testenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, cfg resolver.Config) (*testenv.Env, *cartstate.Store, *resolver.Resolver) {
	t.Helper()

	env := testenv.New(t)
	store := cartstate.New()
	return env, store, resolver.New(env.Client, store, cfg, env.Logger)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		cfg         resolver.Config
		setup       func(env *testenv.Env)
		wantCreates int
		wantError   error
	}{
		{
			name:        "no cart: created",
			setup:       func(env *testenv.Env) {},
			wantCreates: 1,
		},
		{
			// the one creation is the setup's own
			name: "existing cart: reused",
			setup: func(env *testenv.Env) {
				_, err := env.Client.CreateCart(context.Background())
				require.NoError(t, err)
			},
			wantCreates: 1,
		},
		{
			name: "server error treated as absent: created",
			cfg:  resolver.Config{ServerErrorMeansAbsent: true},
			setup: func(env *testenv.Env) {
				env.Backend.Inject(fakeapi.RouteGetCart, http.StatusInternalServerError, "")
			},
			wantCreates: 1,
		},
		{
			name: "server error not treated as absent: unavailable",
			cfg:  resolver.Config{ServerErrorMeansAbsent: false},
			setup: func(env *testenv.Env) {
				env.Backend.Inject(fakeapi.RouteGetCart, http.StatusBadGateway, "")
			},
			wantCreates: 0,
			wantError:   domain.ErrServerError,
		},
		{
			name: "creation fails: unavailable",
			setup: func(env *testenv.Env) {
				env.Backend.Inject(fakeapi.RouteCreateCart, http.StatusInternalServerError, "")
			},
			wantCreates: 1,
			wantError:   domain.ErrCartUnavailable,
		},
		{
			name: "created cart not readable: unavailable",
			setup: func(env *testenv.Env) {
				env.Backend.Inject(fakeapi.RouteGetCart, http.StatusNotFound, "")
				env.Backend.Inject(fakeapi.RouteGetCart, http.StatusNotFound, "")
			},
			wantCreates: 1,
			wantError:   domain.ErrCartUnavailable,
		},
		{
			name: "stale confirmed order: new cart created",
			setup: func(env *testenv.Env) {
				env.Backend.StaleCart = true
				env.Backend.Inject(fakeapi.RouteGetCart, http.StatusOK, `{"id": 99, "status": "confirmed", "items": []}`)
			},
			wantCreates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, store, r := newResolver(t, tt.cfg)
			tt.setup(env)

			handle, err := r.Resolve(t.Context())
			assert.Equal(t, tt.wantCreates, env.Backend.Calls(fakeapi.RouteCreateCart))

			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				require.ErrorIs(t, err, domain.ErrCartUnavailable)
				assert.Zero(t, handle.CartID, "no fabricated id")
				assert.Nil(t, store.Get().Cart)
				return
			}
			require.NoError(t, err)
			require.NotZero(t, handle.CartID)

			snap := store.Get()
			require.NotNil(t, snap.Cart)
			assert.Equal(t, handle.CartID, snap.Cart.ID)
			assert.Equal(t, 1, env.Backend.OpenCarts(env.Token))
		})
	}
}

func TestResolve_ConcurrentCallersShareOneCreation(t *testing.T) {
	env, _, r := newResolver(t, resolver.Config{})
	env.Backend.SetLatency(fakeapi.RouteGetCart, 50*time.Millisecond)

	const callers = 10

	var wg sync.WaitGroup
	handles := make([]domain.CartHandle, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = r.Resolve(t.Context())
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, handles[0], handles[i])
	}
	assert.Equal(t, 1, env.Backend.Calls(fakeapi.RouteCreateCart))
	assert.Equal(t, 1, env.Backend.OpenCarts(env.Token))
}

func TestCurrent_UsesStoreWithoutIO(t *testing.T) {
	env, store, r := newResolver(t, resolver.Config{})

	first, err := r.Current(t.Context())
	require.NoError(t, err)
	fetches := env.Backend.Calls(fakeapi.RouteGetCart)

	second, err := r.Current(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetches, env.Backend.Calls(fakeapi.RouteGetCart))

	store.Replace(nil)
	third, err := r.Current(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, third, "existing server cart is found again")
	assert.Greater(t, env.Backend.Calls(fakeapi.RouteGetCart), fetches)
}

func TestProvision_CreatesFreshCart(t *testing.T) {
	env, store, r := newResolver(t, resolver.Config{})

	first, err := r.Resolve(t.Context())
	require.NoError(t, err)

	// confirm the current cart behind the resolver's back
	_, err = env.Client.SubmitOrder(t.Context(), domain.Submission{CartID: first.CartID, Status: domain.StatusConfirmed})
	require.NoError(t, err)

	second, err := r.Provision(t.Context(), first.CartID)
	require.NoError(t, err)
	assert.NotEqual(t, first.CartID, second.CartID)
	assert.Equal(t, second.CartID, store.Get().Cart.ID)
	assert.Equal(t, 0, store.Get().Cart.TotalItems)
}

func TestProvision_KeepsSuccessorAlreadyInstalled(t *testing.T) {
	env, store, r := newResolver(t, resolver.Config{})

	first, err := r.Resolve(t.Context())
	require.NoError(t, err)
	_, err = env.Client.SubmitOrder(t.Context(), domain.Submission{CartID: first.CartID, Status: domain.StatusConfirmed})
	require.NoError(t, err)

	// a read after confirmation already created and installed the next cart
	second, err := r.Resolve(t.Context())
	require.NoError(t, err)
	require.NotEqual(t, first.CartID, second.CartID)
	creates := env.Backend.Calls(fakeapi.RouteCreateCart)

	provisioned, err := r.Provision(t.Context(), first.CartID)
	require.NoError(t, err)
	assert.Equal(t, second, provisioned)
	assert.Equal(t, creates, env.Backend.Calls(fakeapi.RouteCreateCart))
	assert.Equal(t, 1, env.Backend.OpenCarts(env.Token))
	assert.Equal(t, second.CartID, store.Get().Cart.ID)
}

func TestResolve_CallerCancellation(t *testing.T) {
	env, store, r := newResolver(t, resolver.Config{})
	env.Backend.SetLatency(fakeapi.RouteGetCart, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// a later caller joins or follows the flight that kept running
	handle, err := r.Resolve(t.Context())
	require.NoError(t, err)
	assert.Equal(t, handle.CartID, store.Get().Cart.ID)
	assert.Equal(t, 1, env.Backend.Calls(fakeapi.RouteCreateCart))
}
