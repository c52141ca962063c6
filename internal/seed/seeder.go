// Package seed fills an empty market with demo data. It only goes through the
// public registration, address and listing operations, so seeded data obeys
// the same rules as anything a player does.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/auth"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Users        int  `json:"users"`
	Addresses    int  `json:"addresses"`
	Listings     int  `json:"listings"`
	Auctions     int  `json:"auctions"`
	Sales        int  `json:"sales"`
	Bids         int  `json:"bids"`
	Completed    int  `json:"completed"`
	Rejected     int  `json:"rejected"`
	SkippedItems bool `json:"skipped_items"`
}

// Params wires the seeder to the public services.
type Params struct {
	DB           *db.Client
	Register     auth.RegisterService
	Addresses    addresses.Service
	Listings     listings.Service
	Transactions transactions.Service
	Logger       *logger.Logger
	Config       config.SeedConfig
	Now          func() time.Time
}

type Seeder struct {
	db           *gorm.DB
	register     auth.RegisterService
	addresses    addresses.Service
	listings     listings.Service
	transactions transactions.Service
	logg         *logger.Logger
	cfg          config.SeedConfig
	now          func() time.Time
}

func New(params Params) (*Seeder, error) {
	if params.DB == nil {
		return nil, errors.New("database required")
	}
	if params.Register == nil || params.Addresses == nil || params.Listings == nil || params.Transactions == nil {
		return nil, errors.New("register, addresses, listings and transactions services required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := params.Config
	if cfg.Password == "" {
		cfg.Password = "123456"
	}
	if cfg.UserThreshold <= 0 {
		cfg.UserThreshold = 5
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Seeder{
		db:           params.DB.DB(),
		register:     params.Register,
		addresses:    params.Addresses,
		listings:     params.Listings,
		transactions: params.Transactions,
		logg:         logg,
		cfg:          cfg,
		now:          now,
	}, nil
}

// OnBoot seeds the demo data set when the market has at most the configured
// number of users. It reports whether anything ran.
func (s *Seeder) OnBoot(ctx context.Context) (bool, Summary, error) {
	count, err := users.NewRepository(s.db).Count(ctx)
	if err != nil {
		return false, Summary{}, fmt.Errorf("count users: %w", err)
	}
	if count > s.cfg.UserThreshold {
		s.logg.Info(s.logg.WithField(ctx, "users", count), "seed.skipped")
		return false, Summary{}, nil
	}
	sum, err := s.Demo(ctx)
	return err == nil, sum, err
}

// Demo creates the full demo market: a master, twenty adventurers with
// addresses, direct sales (most of them bought and delivered) and running
// auctions with a few bids each. Users that already exist are reused.
func (s *Seeder) Demo(ctx context.Context) (Summary, error) {
	rng := rand.New(rand.NewSource(s.cfg.RandomSeed))
	var sum Summary

	cast, err := s.cast(ctx, rng, adventurers, &sum)
	if err != nil {
		return sum, err
	}

	sales := make([]*listings.ListingDTO, 0, len(shopItems))
	for _, it := range shopItems {
		seller := pickSeller(rng, cast, it.category)
		base := decimal.NewFromInt(int64(rng.Intn(400) + 50))
		listing, err := s.listings.CreateDirectSale(ctx, seller, listings.CreateDirectSaleInput{
			ItemDetails: details(it),
			Price:       base.Mul(rarityMultiplier[it.rarity]).Round(2),
		})
		if err != nil {
			return sum, fmt.Errorf("create %q: %w", it.name, err)
		}
		sum.Listings++
		sales = append(sales, listing)
	}

	// roughly two thirds of the shop sells, as in a market that has been open
	// for a while
	for i, listing := range sales {
		if i%3 == 2 {
			continue
		}
		if err := s.purchase(ctx, rng, cast, listing, i, &sum); err != nil {
			return sum, err
		}
	}

	for i, it := range auctionItems {
		if err := s.auction(ctx, rng, cast, it, i, &sum); err != nil {
			return sum, err
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"users":     sum.Users,
		"listings":  sum.Listings,
		"auctions":  sum.Auctions,
		"sales":     sum.Sales,
		"bids":      sum.Bids,
		"completed": sum.Completed,
		"rejected":  sum.Rejected,
	}), "seed.demo_created")
	return sum, nil
}

// Simple creates a master, two adventurers and five listings sold by the
// master. Items are skipped once the market already holds five listings, and
// an item whose name already exists is never duplicated.
func (s *Seeder) Simple(ctx context.Context) (Summary, error) {
	rng := rand.New(rand.NewSource(s.cfg.RandomSeed))
	var sum Summary

	cast, err := s.cast(ctx, rng, simpleCast, &sum)
	if err != nil {
		return sum, err
	}
	master := cast[0]

	repo := listings.NewRepository(s.db)
	existing, err := repo.Count(ctx)
	if err != nil {
		return sum, fmt.Errorf("count listings: %w", err)
	}
	if existing >= int64(len(simpleListings)) {
		sum.SkippedItems = true
		s.logg.Warn(s.logg.WithField(ctx, "listings", existing), "seed.simple_items_skipped")
		return sum, nil
	}

	for _, fixed := range simpleListings {
		found, err := repo.ExistsByName(ctx, fixed.name)
		if err != nil {
			return sum, fmt.Errorf("check %q: %w", fixed.name, err)
		}
		if found {
			continue
		}
		if fixed.auction {
			end := s.now().AddDate(0, 0, fixed.auctionDays)
			_, err = s.listings.CreateAuction(ctx, master, listings.CreateAuctionInput{
				ItemDetails:     details(fixed.item),
				StartingPrice:   fixed.price,
				MinBidIncrement: fixed.increment,
				BuyNowPrice:     fixed.buyNow,
				AuctionEndAt:    &end,
			})
			if err == nil {
				sum.Auctions++
			}
		} else {
			_, err = s.listings.CreateDirectSale(ctx, master, listings.CreateDirectSaleInput{
				ItemDetails: details(fixed.item),
				Price:       fixed.price,
			})
		}
		if err != nil {
			return sum, fmt.Errorf("create %q: %w", fixed.name, err)
		}
		sum.Listings++
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"users":    sum.Users,
		"listings": sum.Listings,
	}), "seed.simple_created")
	return sum, nil
}

// cast provisions the master and the given adventurers, each with a default
// address. The master is always the first actor returned.
func (s *Seeder) cast(ctx context.Context, rng *rand.Rand, chars []character, sum *Summary) ([]authz.Actor, error) {
	out := make([]authz.Actor, 0, len(chars)+1)

	master, err := s.provision(ctx, auth.ProvisionRequest{
		RegisterRequest: s.request(masterUsername, masterClass),
		Role:            enums.UserRoleMaster,
		Level:           50,
		Experience:      5000,
		GoldCoins:       decimal.NewFromInt(10000),
	}, sum)
	if err != nil {
		return nil, err
	}
	out = append(out, master)

	for _, c := range chars {
		level := rng.Intn(20) + 1
		actor, err := s.provision(ctx, auth.ProvisionRequest{
			RegisterRequest: s.request(c.username, c.class),
			Role:            enums.UserRoleAdventurer,
			Level:           level,
			Experience:      level * 100,
			GoldCoins:       decimal.NewFromInt(int64(rng.Intn(4900) + 100)),
		}, sum)
		if err != nil {
			return nil, err
		}
		out = append(out, actor)
	}

	for _, actor := range out {
		if err := s.ensureAddress(ctx, rng, actor, sum); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Seeder) request(username, class string) auth.RegisterRequest {
	return auth.RegisterRequest{
		Username:       username,
		Email:          strings.ToLower(username) + "@" + emailDomain,
		Password:       s.cfg.Password,
		CharacterClass: class,
	}
}

// provision creates the account, or loads it when the username is taken.
func (s *Seeder) provision(ctx context.Context, req auth.ProvisionRequest, sum *Summary) (authz.Actor, error) {
	created, err := s.register.Provision(ctx, req)
	if err == nil {
		sum.Users++
		return authz.Actor{
			UserID:         created.ID,
			Username:       created.Username,
			Role:           created.Role,
			CharacterClass: created.CharacterClass,
		}, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return authz.Actor{}, fmt.Errorf("provision %s: %w", req.Username, err)
	}
	user, err := users.NewRepository(s.db).FindByUsername(ctx, req.Username)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("load %s: %w", req.Username, err)
	}
	return authz.ActorFromUser(user), nil
}

func (s *Seeder) ensureAddress(ctx context.Context, rng *rand.Rand, actor authz.Actor, sum *Summary) error {
	existing, err := s.addresses.List(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := s.addresses.Create(ctx, actor.UserID, addresses.CreateAddressInput{
		Street:     fmt.Sprintf("Adventurers Road, %d", rng.Intn(900)+100),
		Number:     fmt.Sprintf("%d", rng.Intn(999)+1),
		Complement: "House of the " + actor.CharacterClass,
		District:   "Medieval District",
		City:       "Kingdom of Camelot",
		State:      "Enchanted Realm",
		PostalCode: fmt.Sprintf("%05d-%03d", rng.Intn(99999), rng.Intn(999)),
		IsDefault:  true,
	}); err != nil {
		return fmt.Errorf("address for %s: %w", actor.Username, err)
	}
	sum.Addresses++
	return nil
}

// purchase buys the listing with a random player other than the seller, then
// ships it and usually confirms delivery.
func (s *Seeder) purchase(ctx context.Context, rng *rand.Rand, cast []authz.Actor, listing *listings.ListingDTO, i int, sum *Summary) error {
	for attempt := 0; attempt < 10; attempt++ {
		buyer := cast[rng.Intn(len(cast))]
		if buyer.UserID == listing.SellerID {
			continue
		}
		res, err := s.listings.BuyNow(ctx, buyer, listing.ID, listings.BuyNowInput{})
		if err != nil {
			if rejected(err) {
				sum.Rejected++
				continue
			}
			return fmt.Errorf("buy %q: %w", listing.Name, err)
		}
		sum.Sales++

		seller := authz.Actor{UserID: listing.SellerID, Username: listing.SellerUsername}
		if i%4 == 3 {
			return nil
		}
		tracking := fmt.Sprintf("RPG%08d", rng.Intn(99999999))
		if _, err := s.transactions.MarkShipped(ctx, seller, res.Transaction.ID, tracking); err != nil {
			return fmt.Errorf("ship %q: %w", listing.Name, err)
		}
		if i%4 == 2 {
			return nil
		}
		if _, err := s.transactions.MarkCompleted(ctx, buyer, res.Transaction.ID); err != nil {
			return fmt.Errorf("complete %q: %w", listing.Name, err)
		}
		sum.Completed++
		return nil
	}
	return nil
}

// auction opens the auction and lets a few eligible players bid on it.
func (s *Seeder) auction(ctx context.Context, rng *rand.Rand, cast []authz.Actor, it item, i int, sum *Summary) error {
	seller := pickSeller(rng, cast, it.category)
	starting := decimal.NewFromInt(int64(rng.Intn(200) + 100))
	increment := decimal.NewFromInt(int64(10 * (rng.Intn(2) + 1)))
	end := s.now().Add(time.Duration(24+rng.Intn(6*24)) * time.Hour)
	input := listings.CreateAuctionInput{
		ItemDetails:     details(it),
		StartingPrice:   starting,
		MinBidIncrement: &increment,
		AuctionEndAt:    &end,
	}
	if i%3 == 0 {
		buyNow := starting.Mul(decimal.NewFromInt(4))
		input.BuyNowPrice = &buyNow
	}
	listing, err := s.listings.CreateAuction(ctx, seller, input)
	if err != nil {
		return fmt.Errorf("create %q: %w", it.name, err)
	}
	sum.Listings++
	sum.Auctions++

	minimum := starting
	var leader authz.Actor
	for round := rng.Intn(5); round > 0; round-- {
		bidder := cast[rng.Intn(len(cast))]
		if bidder.UserID == seller.UserID || bidder.UserID == leader.UserID {
			continue
		}
		if !permissions.IsAllowed(bidder.CharacterClass, bidder.Role, it.category) {
			continue
		}
		amount := minimum.Add(increment.Mul(decimal.NewFromInt(int64(rng.Intn(3)))))
		res, err := s.listings.PlaceBid(ctx, bidder, listing.ID, amount)
		if err != nil {
			if rejected(err) {
				sum.Rejected++
				continue
			}
			return fmt.Errorf("bid on %q: %w", it.name, err)
		}
		sum.Bids++
		leader = bidder
		minimum = res.Listing.Price.Add(increment)
	}
	return nil
}

// pickSeller returns a random player allowed to list the category. The
// master can list everything, so there is always one.
func pickSeller(rng *rand.Rand, cast []authz.Actor, category enums.Category) authz.Actor {
	eligible := make([]authz.Actor, 0, len(cast))
	for _, actor := range cast {
		if permissions.IsAllowed(actor.CharacterClass, actor.Role, category) {
			eligible = append(eligible, actor)
		}
	}
	return eligible[rng.Intn(len(eligible))]
}

func details(it item) listings.ItemDetails {
	return listings.ItemDetails{
		Name:            it.name,
		Description:     it.description,
		Category:        it.category,
		Rarity:          it.rarity,
		MagicProperties: it.properties,
	}
}

// rejected reports the business refusals a player could also hit; the seeder
// moves on from those.
func rejected(err error) bool {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeInsufficientFunds, pkgerrors.CodeForbidden, pkgerrors.CodeIllegalState, pkgerrors.CodeConflict:
		return true
	}
	return false
}
