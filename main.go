package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"stayport/libs/mailer"
	"stayport/libs/masterlist"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	maxUploadBytes           = 10 * 1024 * 1024
	maxBookingNoteLength     = 1000
	maxBookingNights         = 60
	maxBookingLeadDays       = 540
	adminCookieName          = "stayport_admin_session"
	adminSessionDuration     = 8 * time.Hour
	bookingPublicIDAttempts  = 5
	devCORSOriginLocalhost   = "http://localhost:5173"
	devCORSOriginLoopback    = "http://127.0.0.1:5173"
	trustedProxyLoopbackIPv4 = "127.0.0.1"
	trustedProxyLoopbackIPv6 = "::1"
	stayDateLayout           = "2006-01-02"
)

var (
	bookingStatuses   = []string{"pending", "confirmed", "declined", "completed", "cancelled"}
	operatorRoles     = []string{"admin", "editor"}
	allowedImageTypes = map[string]struct{}{"image/jpeg": {}, "image/webp": {}, "image/png": {}}

	bookingStatusTransitions = map[string][]string{
		"pending":   {"confirmed", "declined", "cancelled"},
		"confirmed": {"completed", "cancelled"},
		"declined":  {},
		"completed": {},
		"cancelled": {},
	}

	listingSortColumns = map[string]string{
		"name":  "name",
		"price": "display_price_cents",
	}

	defaultBedTypes = []TaxonomySeed{
		{Key: "single", Label: "Single bed", IsActive: true},
		{Key: "double", Label: "Double bed", IsActive: true},
		{Key: "queen", Label: "Queen bed", IsActive: true},
		{Key: "king", Label: "King bed", IsActive: true},
		{Key: "bunk", Label: "Bunk bed", IsActive: true},
		{Key: "sofa_bed", Label: "Sofa bed", IsActive: true},
		{Key: "cot", Label: "Cot", IsActive: true},
	}
	defaultPropertyTypes = []TaxonomySeed{
		{Key: "apartment", Label: "Apartment", IsActive: true},
		{Key: "house", Label: "House", IsActive: true},
		{Key: "cottage", Label: "Cottage", IsActive: true},
		{Key: "guesthouse", Label: "Guesthouse", IsActive: true},
		{Key: "boutique_hotel", Label: "Boutique hotel", IsActive: true},
		{Key: "cabin", Label: "Cabin", IsActive: true},
	}
)

// TaxonomySeed is one default row for the simple single-list taxonomies
// (bed types, property types).
type TaxonomySeed struct {
	Key      string
	Label    string
	IsActive bool
}

type Config struct {
	Addr                   string
	Env                    string
	DatabaseURL            string
	DataRoot               string
	PublicBaseURL          string
	AppSigningSecret       string
	BookingNotifyEmail     string
	ExportEmailTo          string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminRole     string
	ResendAPIKey           string
	MailerFromAddresses    map[string]string
}

type App struct {
	cfg *Config
	db  *sql.DB
	log *slog.Logger

	mailer  *mailer.Mailer
	metrics *httpMetrics

	// test hooks; main() wires these to the store implementations and
	// handler tests replace them without a database
	adminAuthenticateOperator func(ctx context.Context, email, password string) (*Operator, error)

	adminLoadTaxonomySources    func(ctx context.Context, tax taxonomyDef) (map[string][]masterlist.Entry, error)
	adminLoadTaxonomyCategories func(ctx context.Context, tax taxonomyDef) ([]string, error)
	adminReplaceTaxonomyFacet   func(ctx context.Context, tax taxonomyDef, facet string, entries []masterlist.Entry) error

	publicSearchListings func(ctx context.Context, filters map[string]any, page, pageSize int) (*PaginatedListings, error)
	publicGetListing     func(ctx context.Context, slug string) (*Listing, error)
	publicListUnits      func(ctx context.Context, listingID int) ([]Unit, error)

	createBookingStore    func(ctx context.Context, booking *Booking) error
	getBookingByPublicID  func(ctx context.Context, publicID string) (*Booking, error)
	getBookableUnit       func(ctx context.Context, listingSlug string, unitID int) (*Listing, *Unit, error)
	adminListBookings     func(ctx context.Context, filters map[string]any, page, pageSize int) (*PaginatedBookings, error)
	adminGetBookingByID   func(ctx context.Context, id int) (*Booking, error)
	adminSetBookingStatus func(ctx context.Context, id int, status string, session OperatorSession) (*Booking, error)

	adminReorderHero func(ctx context.Context, ids []string) error

	adminGenerateExportBatch func(ctx context.Context, input map[string]any, session OperatorSession) (*ExportBatch, error)
	adminListExportBatches   func(ctx context.Context) ([]ExportBatch, error)
}

// Listing is a bookable property shown in the public catalogue.
// DisplayPriceCents is denormalized from the cheapest published unit and
// recomputed on every unit mutation.
type Listing struct {
	ID                int      `json:"id"`
	Slug              string   `json:"slug"`
	Name              string   `json:"name"`
	Summary           string   `json:"summary"`
	Description       string   `json:"description"`
	PropertyType      string   `json:"propertyType"`
	City              string   `json:"city"`
	Address           string   `json:"address"`
	Lat               *float64 `json:"lat,omitempty"`
	Lng               *float64 `json:"lng,omitempty"`
	MaxGuests         int      `json:"maxGuests"`
	DisplayPriceCents *int     `json:"displayPriceCents"`
	IsPublished       bool     `json:"isPublished"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// UnitBed is a bed-type count inside a unit.
type UnitBed struct {
	BedTypeKey string `json:"bedTypeKey"`
	Count      int    `json:"count"`
}

// Unit is one bookable accommodation inside a listing. Amenity keys reference
// the amenities master list, split by facet.
type Unit struct {
	ID                 int       `json:"id"`
	ListingID          int       `json:"listingId"`
	Name               string    `json:"name"`
	Sleeps             int       `json:"sleeps"`
	Bedrooms           int       `json:"bedrooms"`
	Bathrooms          int       `json:"bathrooms"`
	NightlyPriceCents  int       `json:"nightlyPriceCents"`
	IsPublished        bool      `json:"isPublished"`
	Beds               []UnitBed `json:"beds"`
	SharedAmenityKeys  []string  `json:"sharedAmenityKeys"`
	PrivateAmenityKeys []string  `json:"privateAmenityKeys"`
	CreatedAt          string    `json:"createdAt"`
	UpdatedAt          string    `json:"updatedAt"`
}

type Booking struct {
	ID              int     `json:"id"`
	PublicID        string  `json:"publicId"`
	ListingID       int     `json:"listingId"`
	UnitID          int     `json:"unitId"`
	ListingName     string  `json:"listingName,omitempty"`
	UnitName        string  `json:"unitName,omitempty"`
	GuestName       string  `json:"guestName"`
	GuestEmail      string  `json:"guestEmail"`
	CheckIn         string  `json:"checkIn"`
	CheckOut        string  `json:"checkOut"`
	Guests          int     `json:"guests"`
	Nights          int     `json:"nights"`
	QuoteTotalCents int     `json:"quoteTotalCents"`
	Status          string  `json:"status"`
	Note            *string `json:"note,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type HeroImage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AltText     string `json:"altText"`
	StoragePath string `json:"-"`
	MimeType    string `json:"mimeType"`
	SizeBytes   int64  `json:"sizeBytes"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type LegalPage struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	BodyHTML  string    `json:"bodyHtml"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

type POI struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	CategoryKey string   `json:"categoryKey"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	IsActive    bool     `json:"isActive"`
}

type Operator struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type OperatorSession struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ExportArtifacts struct {
	CSV string `json:"csv"`
	PDF []byte `json:"pdf"`
}

type ExportBatch struct {
	ID           int             `json:"id"`
	PeriodType   string          `json:"periodType"`
	PeriodStart  string          `json:"periodStart"`
	PeriodEnd    string          `json:"periodEnd"`
	GeneratedAt  string          `json:"generatedAt"`
	GeneratedBy  string          `json:"generatedBy"`
	RowCount     int             `json:"rowCount"`
	FilterStatus *string         `json:"filterStatus,omitempty"`
	Artifacts    ExportArtifacts `json:"artifacts"`
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		panic(err)
	}

	var mailProvider mailer.Provider
	if cfg.ResendAPIKey != "" {
		mailProvider = mailer.NewResendProvider(cfg.ResendAPIKey)
		logger.Info("mailer initialized", "provider", "resend")
	} else {
		mailProvider = mailer.NewLogProvider(logger)
		logger.Info("mailer initialized", "provider", "log")
	}
	mailClient := mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()])

	app := &App{
		cfg:     cfg,
		db:      db,
		log:     logger,
		mailer:  mailClient,
		metrics: newHTTPMetrics(),
	}
	app.wireStoreFunctions()

	logger.Info(
		"runtime configuration",
		"env", cfg.Env,
		"addr", cfg.Addr,
		"public_base_url", cfg.PublicBaseURL,
	)

	if err := app.runMigrations(ctx); err != nil {
		panic(err)
	}

	if len(os.Args) > 1 && os.Args[1] == "run-export" {
		period := "weekly"
		if len(os.Args) > 2 {
			period = os.Args[2]
		}
		if period != "weekly" && period != "monthly" {
			fmt.Fprintf(os.Stderr, "invalid period: %s\n", period)
			os.Exit(1)
		}

		batch, err := app.generateExportBatch(ctx, map[string]any{"period_type": period}, OperatorSession{Email: "scheduler", Role: "admin"})
		if err != nil {
			panic(err)
		}
		logger.Info("scheduled export generated", "export_id", batch.ID, "period", period)
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "seed-taxonomies" {
		if err := app.seedDefaultTaxonomies(ctx); err != nil {
			panic(err)
		}
		logger.Info("seed-taxonomies completed")
		return
	}

	if err := app.bootstrapOperator(ctx); err != nil {
		panic(err)
	}

	if err := app.seedDefaultTaxonomies(ctx); err != nil {
		panic(err)
	}

	if err := InitLegalPageCache(ctx, app.db); err != nil {
		app.log.Error("failed to initialize legal page cache", "err", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.DataRoot, "uploads", "hero"), 0o755); err != nil {
		panic(err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.DataRoot, "exports"), 0o755); err != nil {
		panic(err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		panic(err)
	}
	r.Use(gin.Recovery())
	r.Use(app.loggingMiddleware())
	r.Use(app.metricsMiddleware())
	r.Use(app.corsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", app.metricsHandler())

	app.registerRoutes(r)

	app.log.Info("starting gin API", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func (a *App) registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/listings", a.publicListingsHandler)
		api.GET("/listings/:slug", a.publicListingDetailsHandler)
		api.GET("/listings/:slug/units", a.publicListingUnitsHandler)
		api.GET("/amenities", a.publicAmenitiesHandler)
		api.GET("/accessibility-features", a.publicAccessibilityHandler)
		api.GET("/pois", a.publicPOIsHandler)
		api.GET("/poi-categories", a.publicPOICategoriesHandler)
		api.GET("/bed-types", a.publicBedTypesHandler)
		api.GET("/property-types", a.publicPropertyTypesHandler)
		api.GET("/hero-images", a.publicHeroImagesHandler)
		api.GET("/hero-images/:id/photo", a.publicHeroImagePhotoHandler)
		api.GET("/legal/:slug", a.publicLegalPageHandler)

		api.POST("/bookings", a.createBookingHandler)
		api.GET("/bookings/:public_id/status", a.bookingStatusHandler)

		adminAuth := api.Group("/admin/auth")
		{
			adminAuth.POST("/login", a.adminLoginHandler)
			adminAuth.POST("/logout", a.adminLogoutHandler)
			adminAuth.GET("/session", a.adminSessionHandler)
		}

		admin := api.Group("/admin")
		admin.Use(a.requireOperatorSession())
		{
			admin.GET("/listings", a.adminListingsHandler)
			admin.POST("/listings", a.requireRole("admin"), a.adminCreateListingHandler)
			admin.GET("/listings/:id", a.adminListingDetailsHandler)
			admin.PUT("/listings/:id", a.requireRole("admin"), a.adminUpdateListingHandler)
			admin.DELETE("/listings/:id", a.requireRole("admin"), a.adminDeleteListingHandler)
			admin.POST("/listings/:id/publish", a.requireRole("admin"), a.adminPublishListingHandler)

			admin.GET("/listings/:id/units", a.adminUnitsHandler)
			admin.POST("/listings/:id/units", a.requireRole("admin"), a.adminCreateUnitHandler)
			admin.PUT("/units/:id", a.requireRole("admin"), a.adminUpdateUnitHandler)
			admin.DELETE("/units/:id", a.requireRole("admin"), a.adminDeleteUnitHandler)

			admin.GET("/taxonomies/:name/master", a.adminTaxonomyMasterHandler)
			admin.PUT("/taxonomies/:name/facets/:facet", a.requireRole("admin"), a.adminTaxonomyFacetReplaceHandler)

			admin.GET("/bed-types", a.adminBedTypesHandler)
			admin.PUT("/bed-types/:key", a.requireRole("admin"), a.adminUpsertBedTypeHandler)
			admin.GET("/property-types", a.adminPropertyTypesHandler)
			admin.PUT("/property-types/:key", a.requireRole("admin"), a.adminUpsertPropertyTypeHandler)

			admin.GET("/pois", a.adminPOIsHandler)
			admin.POST("/pois", a.requireRole("admin"), a.adminCreatePOIHandler)
			admin.PUT("/pois/:id", a.requireRole("admin"), a.adminUpdatePOIHandler)
			admin.DELETE("/pois/:id", a.requireRole("admin"), a.adminDeletePOIHandler)

			admin.GET("/bookings", a.adminBookingsHandler)
			admin.GET("/bookings/:id", a.adminBookingDetailsHandler)
			admin.POST("/bookings/:id/status", a.requireRole("admin"), a.adminBookingStatusHandler)

			admin.GET("/hero-images", a.adminHeroImagesHandler)
			admin.POST("/hero-images", a.requireRole("admin"), a.adminUploadHeroImageHandler)
			admin.PUT("/hero-images/:id", a.requireRole("admin"), a.adminUpdateHeroImageHandler)
			admin.DELETE("/hero-images/:id", a.requireRole("admin"), a.adminDeleteHeroImageHandler)
			admin.POST("/hero-images/reorder", a.requireRole("admin"), a.adminReorderHeroImagesHandler)

			admin.GET("/legal", a.adminLegalPagesHandler)
			admin.PUT("/legal/:slug", a.requireRole("admin"), a.adminUpsertLegalPageHandler)

			admin.GET("/operators", a.requireRole("admin"), a.adminOperatorsHandler)
			admin.POST("/operators", a.requireRole("admin"), a.adminCreateOperatorHandler)
			admin.POST("/operators/:id/toggle", a.requireRole("admin"), a.adminToggleOperatorHandler)

			admin.GET("/exports", a.adminExportsHandler)
			admin.POST("/exports/generate", a.requireRole("admin"), a.adminGenerateExportHandler)
			admin.GET("/exports/:id/download", a.adminExportDownloadHandler)
		}
	}
}

func (a *App) wireStoreFunctions() {
	a.adminAuthenticateOperator = a.storeAuthenticateOperator

	a.adminLoadTaxonomySources = a.storeLoadTaxonomySources
	a.adminLoadTaxonomyCategories = a.storeLoadTaxonomyCategories
	a.adminReplaceTaxonomyFacet = a.storeReplaceTaxonomyFacet

	a.publicSearchListings = a.storeSearchListings
	a.publicGetListing = a.storeGetListingBySlug
	a.publicListUnits = a.storeListPublishedUnits

	a.createBookingStore = a.storeCreateBooking
	a.getBookingByPublicID = a.storeGetBookingByPublicID
	a.getBookableUnit = a.storeGetBookableUnit
	a.adminListBookings = a.storeListBookingsPaginated
	a.adminGetBookingByID = a.storeGetBookingByID
	a.adminSetBookingStatus = a.updateBookingStatus

	a.adminReorderHero = a.storeReorderHeroImages

	a.adminGenerateExportBatch = a.generateExportBatch
	a.adminListExportBatches = a.storeListExportBatches
}

func loadConfig() (*Config, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		host := valueFromEnvKeys("PGHOST", "POSTGRES_HOST")
		if host == "" {
			host = "127.0.0.1"
		}
		port := valueFromEnvKeys("PGPORT", "POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		dbname := valueFromEnvKeys("PGDATABASE", "POSTGRES_DB")
		user := valueFromEnvKeys("PGUSER", "POSTGRES_USER")
		password := valueFromEnvKeys("PGPASSWORD", "POSTGRES_PASSWORD")
		sslmode := valueFromEnvKeys("PGSSLMODE", "POSTGRES_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		if dbname != "" && user != "" {
			databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)
		}
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or PG*/POSTGRES_* variables must be configured")
	}

	secret := strings.TrimSpace(os.Getenv("APP_SIGNING_SECRET"))
	if len(secret) < 16 {
		return nil, fmt.Errorf("APP_SIGNING_SECRET must be at least 16 characters")
	}

	publicBase := strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL"))
	if publicBase == "" {
		publicBase = "https://stayport.example"
	}
	publicBase = strings.TrimRight(publicBase, "/")

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Addr:                   valueOrDefault("GIN_ADDR", ":8080"),
		Env:                    env,
		DatabaseURL:            databaseURL,
		DataRoot:               valueOrDefault("DATA_ROOT", "/var/lib/stayport"),
		PublicBaseURL:          publicBase,
		AppSigningSecret:       secret,
		BookingNotifyEmail:     valueOrDefault("BOOKING_NOTIFY_EMAIL", "bookings@stayport.local"),
		ExportEmailTo:          valueOrDefault("EXPORT_EMAIL_TO", "ops@stayport.local"),
		BootstrapAdminEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapAdminPassword: strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")),
		BootstrapAdminRole:     valueOrDefault("BOOTSTRAP_ADMIN_ROLE", "admin"),
		ResendAPIKey:           strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "noreply@mail.stayport.example"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "noreply@stayport.local"),
		},
	}

	if cfg.BootstrapAdminRole != "admin" {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_ROLE must be 'admin'")
	}

	return cfg, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func valueFromEnvKeys(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

func (a *App) runMigrations(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		var exists bool
		if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, file).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}

		content, err := migrationFiles.ReadFile(filepath.Join("migrations", file))
		if err != nil {
			return err
		}

		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, file); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		a.log.Info("applied migration", "file", file)
	}

	return nil
}

func (a *App) bootstrapOperator(ctx context.Context) error {
	email := a.cfg.BootstrapAdminEmail
	password := a.cfg.BootstrapAdminPassword
	if email == "" || password == "" {
		a.log.Info("bootstrap admin not configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO operators (email, password_hash, role, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = TRUE,
			updated_at = NOW()
	`, email, string(hash), a.cfg.BootstrapAdminRole)
	if err != nil {
		return err
	}

	a.log.Info("bootstrap admin ensured", "email", email, "role", a.cfg.BootstrapAdminRole)
	return nil
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if a.isAllowedCORSOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *App) isAllowedCORSOrigin(origin string) bool {
	if origin == "" || a.cfg == nil {
		return false
	}
	if a.cfg.PublicBaseURL != "" && origin == a.cfg.PublicBaseURL {
		return true
	}
	if !strings.EqualFold(a.cfg.Env, "development") {
		return false
	}
	return origin == devCORSOriginLocalhost || origin == devCORSOriginLoopback
}

func (a *App) isProduction() bool {
	return strings.EqualFold(a.cfg.Env, "production")
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}

func parseIDParam(c *gin.Context) int {
	id, _ := strconv.Atoi(c.Param("id"))
	return id
}
