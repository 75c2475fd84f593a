package config

import (
	"time"
)

type DB struct {
	Url         string `envconfig:"URL"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

type Jwt struct {
	Secret      string        `envconfig:"SECRET"`
	Expiry      time.Duration `envconfig:"EXPIRY" default:"12h"`
	ResetExpiry time.Duration `envconfig:"RESET_EXPIRY" default:"30m"`
	Issuer      string        `envconfig:"ISSUER" default:"charity"`
}

type Auth struct {
	Jwt          *Jwt   `envconfig:"JWT"`
	CookieName   string `envconfig:"COOKIE_NAME" default:"session"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`
	LoginPath    string `envconfig:"LOGIN_PATH" default:"/login"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"charity:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	LockTTL      time.Duration `envconfig:"LOCK_TTL" default:"15s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type EventBus struct {
	Driver       string `envconfig:"DRIVER" default:"memory"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	TopicPrefix  string `envconfig:"TOPIC_PREFIX" default:"charity.events"`
	GroupID      string `envconfig:"GROUP_ID" default:"charity"`
	SASLUsername string `envconfig:"KAFKA_SASL_USERNAME"`
	SASLPassword string `envconfig:"KAFKA_SASL_PASSWORD"`
	KafkaTLS     bool   `envconfig:"KAFKA_TLS" default:"false"`
	// Workers sizes the async memory bus.
	Workers int `envconfig:"WORKERS" default:"4"`
}

//revive:disable
type Stripe struct {
	ApiKey        string        `envconfig:"API_KEY"`
	SigningSecret string        `envconfig:"SIGNING_SECRET"`
	ApiURL        string        `envconfig:"API_URL"`
	SuccessURL    string        `envconfig:"SUCCESS_URL" default:"http://localhost:3000/donate/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL     string        `envconfig:"CANCEL_URL" default:"http://localhost:3000/donate/cancel"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

type Paystack struct {
	SecretKey   string        `envconfig:"SECRET_KEY"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string        `envconfig:"CALLBACK_URL" default:"http://localhost:3000/donate/verify"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

//revive:enable
type PaymentProviders struct {
	Stripe   *Stripe   `envconfig:"STRIPE"`
	Paystack *Paystack `envconfig:"PAYSTACK"`
	// Mock enables the in-process gateway for both methods. Never in production.
	Mock bool `envconfig:"MOCK" default:"false"`
}

type Mail struct {
	Host     string        `envconfig:"HOST"`
	Port     int           `envconfig:"PORT" default:"587"`
	Username string        `envconfig:"USERNAME"`
	Password string        `envconfig:"PASSWORD"`
	From     string        `envconfig:"FROM" default:"no-reply@localhost"`
	TLS      string        `envconfig:"TLS" default:"opportunistic"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type Exchange struct {
	NGNPerUSD string `envconfig:"NGN_PER_USD" default:"1500"`
}

type Notification struct {
	AdminEmail string `envconfig:"ADMIN_EMAIL"`
	OrgName    string `envconfig:"ORG_NAME" default:"Our Charity"`
	SiteURL    string `envconfig:"SITE_URL" default:"http://localhost:3000"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[charity]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
	// ProxyHeader carries the client IP, read only from TrustedProxies.
	ProxyHeader    string   `envconfig:"PROXY_HEADER"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Auth             *Auth             `envconfig:"AUTH"`
	Redis            *Redis            `envconfig:"REDIS"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	EventBus         *EventBus         `envconfig:"EVENT_BUS"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	Mail             *Mail             `envconfig:"MAIL"`
	Exchange         *Exchange         `envconfig:"EXCHANGE"`
	Notification     *Notification     `envconfig:"NOTIFICATION"`
}
