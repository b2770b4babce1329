package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm/internal/constant"
)

const (
	backendMemory   = "memory"
	backendDynamoDB = "dynamodb"
)

var flgs = &Flags{}

type Flags struct {
	Backend               string
	ShipmentTableName     string
	NotificationTableName string
	EndpointURL           string
	LogLevel              string
	LogFormat             string
	SessionFile           string

	ID                 string
	BatchID            string
	CropType           string
	QuantityKg         float64
	Condition          string
	Origin             string
	Destination        string
	Status             string
	Location           string
	ETA                string
	BuyerID            string
	FarmerID           string
	LogisticsPartnerID string

	CheckpointName string
	HandlerRole    string
	Notes          string

	Name  string
	Email string
	Role  string

	Unread bool

	KafkaBrokers    string
	KafkaTopic      string
	RabbitURL       string
	RabbitQueue     string
	PollingInterval time.Duration
	Concurrency     int
	MaximumAttempts int
}

var flagMap = FlagMap{
	Backend: FlagSet[string]{
		Name:  "backend",
		Usage: "Storage backend: memory or dynamodb.",
		Value: backendMemory,
	},
	ShipmentTableName: FlagSet[string]{
		Name:  "shipment-table-name",
		Usage: "The name of the table that holds shipments.",
		Value: constant.DefaultShipmentTableName,
	},
	NotificationTableName: FlagSet[string]{
		Name:  "notification-table-name",
		Usage: "The name of the table that holds notifications.",
		Value: constant.DefaultNotificationTableName,
	},
	EndpointURL: FlagSet[string]{
		Name:  "endpoint-url",
		Usage: "Override command's default URL with the given URL.",
		Value: "",
	},
	LogLevel: FlagSet[string]{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error.",
		Value: "warn",
	},
	LogFormat: FlagSet[string]{
		Name:  "log-format",
		Usage: "Log format: console or json.",
		Value: "console",
	},
	SessionFile: FlagSet[string]{
		Name:  "session-file",
		Usage: "Where the logged-in user is stored. Defaults to the user config directory.",
		Value: "",
	},
	ID: FlagSet[string]{
		Name:  "id",
		Usage: "Shipment ID.",
		Value: "",
	},
	BatchID: FlagSet[string]{
		Name:  "batch-id",
		Usage: "Human-readable batch label.",
		Value: "",
	},
	CropType: FlagSet[string]{
		Name:  "crop-type",
		Usage: "Crop carried by the shipment.",
		Value: "",
	},
	QuantityKg: FlagSet[float64]{
		Name:  "quantity-kg",
		Usage: "Quantity in kilograms.",
		Value: 0,
	},
	Condition: FlagSet[string]{
		Name:  "condition",
		Usage: "Condition of the goods: good, fair or poor.",
		Value: string(defaultCondition),
	},
	Origin: FlagSet[string]{
		Name:  "origin",
		Usage: "Where the shipment starts.",
		Value: "",
	},
	Destination: FlagSet[string]{
		Name:  "destination",
		Usage: "Where the shipment ends.",
		Value: "",
	},
	Status: FlagSet[string]{
		Name:  "status",
		Usage: "Shipment status: created, in_transit, delayed, delivered or cancelled.",
		Value: string(defaultStatus),
	},
	Location: FlagSet[string]{
		Name:  "location",
		Usage: "Coordinates as lat,lng.",
		Value: "",
	},
	ETA: FlagSet[string]{
		Name:  "eta",
		Usage: "Estimated time of arrival (RFC3339).",
		Value: "",
	},
	BuyerID: FlagSet[string]{
		Name:  "buyer-id",
		Usage: "Buyer reference.",
		Value: "",
	},
	FarmerID: FlagSet[string]{
		Name:  "farmer-id",
		Usage: "Farmer reference.",
		Value: "",
	},
	LogisticsPartnerID: FlagSet[string]{
		Name:  "logistics-partner-id",
		Usage: "Logistics partner reference.",
		Value: "",
	},
	CheckpointName: FlagSet[string]{
		Name:  "name",
		Usage: "Checkpoint name.",
		Value: "",
	},
	HandlerRole: FlagSet[string]{
		Name:  "handler-role",
		Usage: "Role that handled the checkpoint. Defaults to the logged-in user's role.",
		Value: "",
	},
	Notes: FlagSet[string]{
		Name:  "notes",
		Usage: "Free-form checkpoint notes.",
		Value: "",
	},
	Name: FlagSet[string]{
		Name:  "name",
		Usage: "Display name. Defaults to the role.",
		Value: "",
	},
	Email: FlagSet[string]{
		Name:  "email",
		Usage: "Email address. Defaults to <role>@scm.local.",
		Value: "",
	},
	Role: FlagSet[string]{
		Name:  "role",
		Usage: "Role: farmer, logistics, market-agent, buyer or admin.",
		Value: "",
	},
	Unread: FlagSet[bool]{
		Name:  "unread",
		Usage: "Only show unread notifications.",
		Value: false,
	},
	KafkaBrokers: FlagSet[string]{
		Name:  "kafka-brokers",
		Usage: "Comma-separated Kafka brokers to publish notifications to.",
		Value: "",
	},
	KafkaTopic: FlagSet[string]{
		Name:  "kafka-topic",
		Usage: "Kafka topic for notifications.",
		Value: "scm.notifications",
	},
	RabbitURL: FlagSet[string]{
		Name:  "rabbitmq-url",
		Usage: "AMQP URL to publish notifications to.",
		Value: "",
	},
	RabbitQueue: FlagSet[string]{
		Name:  "rabbitmq-queue",
		Usage: "RabbitMQ queue for notifications.",
		Value: "scm.notifications",
	},
	PollingInterval: FlagSet[time.Duration]{
		Name:  "polling-interval",
		Usage: "Pause between two reads of the notification list.",
		Value: constant.DefaultPollingInterval,
	},
	Concurrency: FlagSet[int]{
		Name:  "concurrency",
		Usage: "Number of notifications relayed in parallel.",
		Value: constant.DefaultConcurrency,
	},
	MaximumAttempts: FlagSet[int]{
		Name:  "maximum-attempts",
		Usage: "Attempts before a failing notification is marked read anyway. 0 retries forever.",
		Value: 0,
	},
}

type FlagSet[T any] struct {
	Name  string
	Usage string
	Value T
}

type FlagMap struct {
	Backend               FlagSet[string]
	ShipmentTableName     FlagSet[string]
	NotificationTableName FlagSet[string]
	EndpointURL           FlagSet[string]
	LogLevel              FlagSet[string]
	LogFormat             FlagSet[string]
	SessionFile           FlagSet[string]
	ID                    FlagSet[string]
	BatchID               FlagSet[string]
	CropType              FlagSet[string]
	QuantityKg            FlagSet[float64]
	Condition             FlagSet[string]
	Origin                FlagSet[string]
	Destination           FlagSet[string]
	Status                FlagSet[string]
	Location              FlagSet[string]
	ETA                   FlagSet[string]
	BuyerID               FlagSet[string]
	FarmerID              FlagSet[string]
	LogisticsPartnerID    FlagSet[string]
	CheckpointName        FlagSet[string]
	HandlerRole           FlagSet[string]
	Notes                 FlagSet[string]
	Name                  FlagSet[string]
	Email                 FlagSet[string]
	Role                  FlagSet[string]
	Unread                FlagSet[bool]
	KafkaBrokers          FlagSet[string]
	KafkaTopic            FlagSet[string]
	RabbitURL             FlagSet[string]
	RabbitQueue           FlagSet[string]
	PollingInterval       FlagSet[time.Duration]
	Concurrency           FlagSet[int]
	MaximumAttempts       FlagSet[int]
}

func setDefaultFlags(c *cobra.Command, flgs *Flags) {
	pf := c.PersistentFlags()
	pf.StringVar(&flgs.Backend, flagMap.Backend.Name, flagMap.Backend.Value, flagMap.Backend.Usage)
	pf.StringVar(&flgs.ShipmentTableName, flagMap.ShipmentTableName.Name, flagMap.ShipmentTableName.Value, flagMap.ShipmentTableName.Usage)
	pf.StringVar(&flgs.NotificationTableName, flagMap.NotificationTableName.Name, flagMap.NotificationTableName.Value, flagMap.NotificationTableName.Usage)
	pf.StringVar(&flgs.EndpointURL, flagMap.EndpointURL.Name, flagMap.EndpointURL.Value, flagMap.EndpointURL.Usage)
	pf.StringVar(&flgs.LogLevel, flagMap.LogLevel.Name, flagMap.LogLevel.Value, flagMap.LogLevel.Usage)
	pf.StringVar(&flgs.LogFormat, flagMap.LogFormat.Name, flagMap.LogFormat.Value, flagMap.LogFormat.Usage)
	pf.StringVar(&flgs.SessionFile, flagMap.SessionFile.Name, flagMap.SessionFile.Value, flagMap.SessionFile.Usage)
}

func stringFlag(c *cobra.Command, p *string, fs FlagSet[string]) {
	c.Flags().StringVar(p, fs.Name, fs.Value, fs.Usage)
}
