package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/fintrace/internal/service"
)

// Dataset contains the generated users and transactions.
type Dataset struct {
	Users        []service.UserInput        `json:"users"`
	Transactions []service.TransactionInput `json:"transactions"`
}

// Generator produces synthetic users and transactions whose contact details,
// IPs and devices overlap often enough to exercise linkage.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	pools         attributePools
}

// New returns a configured Generator instance. A non-positive user count and
// negative chances fall back to DefaultConfig.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumTransactions < 0 {
		cfg.NumTransactions = 0
	}
	if cfg.SharedAttributeChance < 0 {
		cfg.SharedAttributeChance = def.SharedAttributeChance
	}
	if cfg.IPShareChance < 0 {
		cfg.IPShareChance = def.IPShareChance
	}
	if cfg.DeviceShareChance < 0 {
		cfg.DeviceShareChance = def.DeviceShareChance
	}
	if cfg.LinkLimit <= 0 {
		cfg.LinkLimit = def.LinkLimit
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate synthesises users and transactions. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]service.UserInput, g.cfg.NumUsers)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		userID := fmt.Sprintf("user-%d", i+1)
		users[i] = service.UserInput{
			ID:   userID,
			Name: g.randomFullName(),
			Email: g.maybeSharedString(&g.pools.emails, g.cfg.SharedAttributeChance, func() string {
				return g.randomEmail(i + 1)
			}),
			Phone:          g.maybeSharedString(&g.pools.phones, g.cfg.SharedAttributeChance, g.randomPhone),
			Address:        g.maybeSharedString(&g.pools.addresses, g.cfg.SharedAttributeChance, g.randomAddress),
			PaymentMethods: g.randomPaymentMethods(i),
		}
	}

	nowMs := g.cfg.Now.UnixMilli()
	transactions := make([]service.TransactionInput, g.cfg.NumTransactions)
	for i := range transactions {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		id, err := uuid.NewRandomFromReader(g.rand)
		if err != nil {
			return Dataset{}, fmt.Errorf("transaction id: %w", err)
		}

		senderIdx := g.rand.Intn(len(users))
		receiverIdx := g.rand.Intn(len(users))
		if receiverIdx == senderIdx && len(users) > 1 {
			receiverIdx = (receiverIdx + 1) % len(users)
		}

		transactions[i] = service.TransactionInput{
			ID:         id.String(),
			SenderID:   users[senderIdx].ID,
			ReceiverID: users[receiverIdx].ID,
			Amount:     math.Floor(g.rand.Float64()*50000) / 100,
			// Ascending so later rows are the most recent, as if inserted live.
			Timestamp: nowMs - int64(g.cfg.NumTransactions-i)*int64(time.Second/time.Millisecond),
			IP:        g.maybeSharedString(&g.pools.ips, g.cfg.IPShareChance, g.randomIP),
			DeviceID:  g.maybeSharedString(&g.pools.devices, g.cfg.DeviceShareChance, g.randomDeviceID),
			Metadata: map[string]any{
				"channel": g.randomChannel(),
				"note":    g.randomNote(),
			},
		}
	}

	return Dataset{Users: users, Transactions: transactions}, nil
}

type attributePools struct {
	emails    []string
	phones    []string
	addresses []string
	ips       []string
	devices   []string
}

func (g *Generator) maybeSharedString(pool *[]string, chance float64, newValue func() string) string {
	if len(*pool) > 0 && g.rand.Float64() < chance {
		return (*pool)[g.rand.Intn(len(*pool))]
	}
	val := newValue()
	*pool = append(*pool, val)
	return val
}

func (g *Generator) randomPaymentMethods(i int) []string {
	methods := []string{"card"}
	if i%3 == 0 {
		methods = append(methods, "upi")
	}
	if g.rand.Float64() < 0.2 {
		methods = append(methods, "wallet")
	}
	return methods
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))])
}

func (g *Generator) randomEmail(n int) string {
	domain := g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]
	return fmt.Sprintf("user%d@%s", n, domain)
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("+1%03d%03d%04d", g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

func (g *Generator) randomAddress() string {
	return fmt.Sprintf("%d %s %s, %s", g.rand.Intn(9999)+1,
		g.nameFragments.streetNames[g.rand.Intn(len(g.nameFragments.streetNames))],
		g.nameFragments.streetSuffix[g.rand.Intn(len(g.nameFragments.streetSuffix))],
		g.nameFragments.cities[g.rand.Intn(len(g.nameFragments.cities))])
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(256))
}

func (g *Generator) randomDeviceID() string {
	return fmt.Sprintf("device-%06d", g.rand.Intn(999999))
}

func (g *Generator) randomChannel() string {
	channels := []string{"WEB", "MOBILE", "POS", "API"}
	return channels[g.rand.Intn(len(channels))]
}

func (g *Generator) randomNote() string {
	notes := []string{"Invoice settlement", "Freelance payout", "Peer transfer", "Market purchase", "Rent split"}
	return notes[g.rand.Intn(len(notes))]
}

type nameFragments struct {
	first        []string
	last         []string
	domains      []string
	streetNames  []string
	streetSuffix []string
	cities       []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:        []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:         []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains:      []string{"example.com", "mail.com", "payments.net", "securepay.org"},
		streetNames:  []string{"Market", "Mission", "Broadway", "Fifth", "Sunset", "Park", "Cedar", "Oak", "Pine", "Ash"},
		streetSuffix: []string{"St", "Ave", "Blvd", "Ln", "Rd", "Way"},
		cities:       []string{"San Francisco", "New York", "Seattle", "Austin", "Chicago", "Miami", "Denver", "Boston"},
	}
}
