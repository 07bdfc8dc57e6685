package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// Storage, events and cart drivers.
const (
    StoreMemory = "memory"
    StoreMySQL  = "mysql"
    StoreMongo  = "mongo"

    EventsNone     = "none"
    EventsRabbitMQ = "rabbitmq"
    EventsNATS     = "nats"
    EventsKafka    = "kafka"

    CartMemory = "memory"
    CartRedis  = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    StoreDriver string // memory | mysql | mongo
    DBUser      string
    DBPass      string // optional
    DBHost      string
    DBPort      string
    DBName      string
    MongoURL    string
    MongoDB     string

    EventsDriver string // none | rabbitmq | nats | kafka
    RabbitURL    string
    NATSURL      string
    KafkaBrokers []string
    KafkaGroup   string

    CartDriver string // memory | redis
    CartPrefix string
    CartTTL    time.Duration

    AppFee               decimal.Decimal
    DownPaymentRatio     decimal.Decimal
    MaxSelections        int    // 0 = unbounded
    SelectionLimitPolicy string // silent | error
    StrictBooking        bool
    FeedRetryMax         time.Duration
    NonSeatIDs           []string // nil = built-in markers

    SeedOnStart    bool
    LogLevel       string
    LogFormat      string
    BookingLogPath string
}

// Load reads configuration values from environment variables.  Every
// missing required variable and every malformed value is reported in one
// joined error.
func Load() (Config, error) {
    l := &loader{}
    cfg := Config{
        Env:            l.must("APP_ENV"),
        Port:           l.must("APP_PORT"),
        JWTSecret:      l.must("JWT_SECRET"),
        AccessTTLMin:   l.intVal("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: l.intVal("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:     l.intVal("BCRYPT_COST", 10),

        StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMemory)),
        DBPass:      os.Getenv("DB_PASS"),
        MongoDB:     envStr("MONGO_DB", "cafe_reservation"),

        EventsDriver: strings.ToLower(envStr("EVENTS_DRIVER", EventsNone)),
        KafkaGroup:   envStr("KAFKA_GROUP", "cafe-reservation"),

        CartDriver: strings.ToLower(envStr("CART_DRIVER", CartMemory)),
        CartPrefix: envStr("CART_PREFIX", "cart"),
        CartTTL:    l.durVal("CART_TTL", 24*time.Hour),

        AppFee:               l.decVal("APP_FEE", "2000"),
        DownPaymentRatio:     l.decVal("DOWN_PAYMENT_RATIO", "0.5"),
        MaxSelections:        l.intVal("MAX_SELECTIONS", 0),
        SelectionLimitPolicy: strings.ToLower(envStr("SELECTION_LIMIT_POLICY", "silent")),
        StrictBooking:        envBool("STRICT_BOOKING", false),
        FeedRetryMax:         l.durVal("FEED_RETRY_MAX", 30*time.Second),
        NonSeatIDs:           splitList(os.Getenv("NON_SEAT_IDS")),

        SeedOnStart:    envBool("SEED_ON_START", true),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        LogFormat:      envStr("LOG_FORMAT", "text"),
        BookingLogPath: envStr("BOOKING_LOG_PATH", "logs/booking.log"),
    }

    switch cfg.StoreDriver {
    case StoreMemory:
    case StoreMySQL:
        cfg.DBUser = l.must("DB_USER")
        cfg.DBHost = l.must("DB_HOST")
        cfg.DBPort = l.must("DB_PORT")
        cfg.DBName = l.must("DB_NAME")
    case StoreMongo:
        cfg.MongoURL = l.must("MONGO_URL")
    default:
        l.invalid("STORE_DRIVER", cfg.StoreDriver)
    }

    switch cfg.EventsDriver {
    case EventsNone:
    case EventsRabbitMQ:
        cfg.RabbitURL = l.must("RABBITMQ_URL")
    case EventsNATS:
        cfg.NATSURL = envStr("NATS_URL", "nats://127.0.0.1:4222")
    case EventsKafka:
        cfg.KafkaBrokers = splitList(l.must("KAFKA_BROKERS"))
    default:
        l.invalid("EVENTS_DRIVER", cfg.EventsDriver)
    }

    if cfg.CartDriver != CartMemory && cfg.CartDriver != CartRedis {
        l.invalid("CART_DRIVER", cfg.CartDriver)
    }
    if cfg.SelectionLimitPolicy != "silent" && cfg.SelectionLimitPolicy != "error" {
        l.invalid("SELECTION_LIMIT_POLICY", cfg.SelectionLimitPolicy)
    }
    if cfg.MaxSelections < 0 {
        l.invalid("MAX_SELECTIONS", strconv.Itoa(cfg.MaxSelections))
    }
    if cfg.AppFee.IsNegative() {
        l.invalid("APP_FEE", cfg.AppFee.String())
    }
    if cfg.DownPaymentRatio.IsNegative() || cfg.DownPaymentRatio.GreaterThan(decimal.NewFromInt(1)) {
        l.invalid("DOWN_PAYMENT_RATIO", cfg.DownPaymentRatio.String())
    }

    return cfg, l.err()
}

// loader collects configuration problems instead of exiting on the first.
type loader struct {
    missing []string
    errs    []error
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || strings.TrimSpace(v) == "" {
        l.missing = append(l.missing, key)
        return ""
    }
    return v
}

func (l *loader) intVal(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(strings.TrimSpace(v))
    if err != nil {
        l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", key, v))
        return def
    }
    return n
}

func (l *loader) durVal(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(strings.TrimSpace(v))
    if err != nil {
        l.errs = append(l.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
        return def
    }
    return d
}

func (l *loader) decVal(key, def string) decimal.Decimal {
    v := envStr(key, def)
    d, err := decimal.NewFromString(strings.TrimSpace(v))
    if err != nil {
        l.errs = append(l.errs, fmt.Errorf("invalid decimal for %s: %q", key, v))
        return decimal.RequireFromString(def)
    }
    return d
}

func (l *loader) invalid(key, value string) {
    l.errs = append(l.errs, fmt.Errorf("invalid value for %s: %q", key, value))
}

func (l *loader) err() error {
    var errs []error
    if len(l.missing) > 0 {
        errs = append(errs, fmt.Errorf("missing required env vars: %s", strings.Join(l.missing, ", ")))
    }
    errs = append(errs, l.errs...)
    return errors.Join(errs...)
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
