package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/merchant"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/nikolayk812/storefront/internal/resolver"
	"github.com/nikolayk812/storefront/internal/session"
	"github.com/nikolayk812/storefront/internal/storefront"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: storefront <command> [flags]

commands:
  cart                              show the open cart grouped by merchant
  add SKU PRICE [--qty N] [--merchant NAME] [--name NAME]
  inc ITEM | dec ITEM | rm ITEM     change one cart line
  set ITEM QTY                      set the quantity of a cart line
  checkout [--address A] [--delivery courier|pickup]
  orders [--limit N] [--offset N]   show the order history
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("newLogger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sessions := session.New(cfg.Token, cfg.OwnerID, func() {
		logger.Warn("credential rejected, sign in again", zap.String("owner_id", cfg.OwnerID))
	})

	api, err := client.New(cfg.Client(), sessions, logger.Named("client"))
	if err != nil {
		return fmt.Errorf("client.New: %w", err)
	}

	var repo port.OrderHistoryRepository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("pgxpool.New: %w", err)
		}
		defer pool.Close()

		repo = repository.NewOrderHistory(pool)
	}

	sf := storefront.New(api, sessions, repo, resolver.Config{
		ServerErrorMeansAbsent: cfg.ServerErrorMeansAbsent,
	}, logger)

	logger.Debug("running command", zap.String("command", args[0]), zap.String("base_url", cfg.BaseURL))

	return dispatch(ctx, sf, args[0], args[1:], out)
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	if level == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func dispatch(ctx context.Context, sf *storefront.Storefront, command string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch command {
	case "cart":
		cart, err := sf.Cart(ctx)
		if err != nil {
			return err
		}
		printCart(out, cart)
		return nil

	case "add":
		qty := fs.Int("qty", 1, "quantity")
		merchantName := fs.String("merchant", "", "merchant name")
		name := fs.String("name", "", "product name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return errors.New("add needs SKU and PRICE")
		}

		skuID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("SKU[%s] is not valid: %w", fs.Arg(0), err)
		}
		price, err := decimal.NewFromString(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("PRICE[%s] is not valid: %w", fs.Arg(1), err)
		}

		product := domain.Product{
			Name: *name,
			BestOffer: &domain.Offer{
				SkuID:        skuID,
				Price:        domain.Money{Amount: price},
				MerchantName: *merchantName,
			},
		}
		if err := sf.Add(ctx, product, *qty); err != nil {
			return err
		}
		printCart(out, sf.Snapshot())
		return nil

	case "inc", "dec", "rm":
		if len(args) != 1 {
			return fmt.Errorf("%s needs ITEM", command)
		}
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := sf.Cart(ctx); err != nil {
			return err
		}

		switch command {
		case "inc":
			err = sf.Increase(ctx, itemID)
		case "dec":
			err = sf.Decrease(ctx, itemID)
		default:
			err = sf.Remove(ctx, itemID)
		}
		if err != nil {
			return err
		}
		printCart(out, sf.Snapshot())
		return nil

	case "set":
		if len(args) != 2 {
			return errors.New("set needs ITEM and QTY")
		}
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("QTY[%s] is not valid: %w", args[1], err)
		}
		if _, err := sf.Cart(ctx); err != nil {
			return err
		}
		if err := sf.SetQuantity(ctx, itemID, qty); err != nil {
			return err
		}
		printCart(out, sf.Snapshot())
		return nil

	case "checkout":
		address := fs.String("address", "", "delivery address")
		delivery := fs.String("delivery", string(domain.DeliveryCourier), "courier or pickup")
		if err := fs.Parse(args); err != nil {
			return err
		}

		// checkout submits the cart the engine knows about
		if _, err := sf.Cart(ctx); err != nil {
			return err
		}

		order, err := sf.Checkout(ctx, checkout.Request{
			Address:        *address,
			DeliveryMethod: domain.DeliveryMethod(*delivery),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "order %d %s: %s, %d items\n", order.ID, order.Status, order.TotalAmount, order.TotalItems)
		return nil

	case "orders":
		limit := fs.Int("limit", 0, "page size")
		offset := fs.Int("offset", 0, "page offset")
		if err := fs.Parse(args); err != nil {
			return err
		}

		orders, err := sf.Orders(ctx, *limit, *offset)
		if err != nil {
			return err
		}
		printOrders(out, orders)
		return nil

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ITEM[%s] is not valid: %w", s, err)
	}
	return id, nil
}

func printCart(out io.Writer, cart *domain.Cart) {
	if cart == nil {
		fmt.Fprintln(out, "no cart")
		return
	}

	fmt.Fprintf(out, "cart %d (%s)\n", cart.ID, cart.Status)
	for _, g := range merchant.Group(cart) {
		fmt.Fprintf(out, "  %s: %s\n", g.MerchantName, g.Total)
		for _, item := range g.Items {
			fmt.Fprintf(out, "    #%d %s x%d = %s\n", item.ID, item.ProductName, item.Quantity, item.Total())
		}
	}
	fmt.Fprintf(out, "total %s, %d items\n", cart.TotalAmount, cart.TotalItems)
}

func printOrders(out io.Writer, history domain.OrderHistory) {
	fmt.Fprintf(out, "%d orders (%s)\n", len(history.Orders), history.Source)
	for _, o := range history.Orders {
		created := "-"
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "  %d %s %s %s %s, %d items\n", o.ID, created, o.Status, o.DeliveryMethod, o.TotalAmount, o.TotalItems)
	}
}
