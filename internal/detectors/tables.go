package detectors

import "archgraph/internal/architecture"

const (
	ext = architecture.LayerExternal
	dbl = architecture.LayerDatabase
	qul = architecture.LayerQueue
	fe  = architecture.LayerFrontend
	be  = architecture.LayerBackend
)

func services() []*Signature {
	return mustCompile([]*Signature{
		{
			Name: "stripe", Type: architecture.TypeService, Layer: ext, Purpose: "payments",
			Critical: true, Connection: architecture.ConnServiceCall, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `\bnew Stripe\(`},
				{Expr: `\bstripe\.(?:charges|customers|paymentIntents|subscriptions|checkout|invoices|webhooks)\.`},
				{Expr: `\bstripe\.(?:Charge|Customer|PaymentIntent|Subscription|Webhook)\.\w+\(`},
				{Expr: `\bStripe::\w+`},
				{Expr: `\bstripe\.Key\s*=`},
				{Expr: `api\.stripe\.com`, InString: true},
			},
			Imports:  []string{"stripe"},
			Packages: []string{"stripe", "@stripe/stripe-js", "github.com/stripe/stripe-go", "stripe_flutter", "flutter_stripe"},
		},
		{
			Name: "twilio", Type: architecture.TypeService, Layer: ext, Purpose: "sms and voice",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `\btwilio\(\s*\w+`},
				{Expr: `\bnew Twilio\(`},
				{Expr: `\bTwilio\.Rest\b`},
				{Expr: `\btwilio\.NewRestClient`},
				{Expr: `\bClient\(\s*account_sid`},
			},
			Imports:  []string{"twilio"},
			Packages: []string{"twilio", "github.com/twilio/twilio-go"},
		},
		{
			Name: "sendgrid", Type: architecture.TypeService, Layer: ext, Purpose: "transactional email",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `\bsgMail\.send\(`},
				{Expr: `\bSendGridAPIClient\(`},
				{Expr: `\bsendgrid\.NewSendClient\(`},
				{Expr: `api\.sendgrid\.com`, InString: true},
			},
			Imports:  []string{"sendgrid"},
			Packages: []string{"@sendgrid/mail", "sendgrid", "github.com/sendgrid/sendgrid-go"},
		},
		{
			Name: "aws-s3", Type: architecture.TypeService, Layer: ext, Purpose: "object storage",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `\bnew S3Client\(`},
				{Expr: `\bnew AWS\.S3\(`},
				{Expr: `boto3\.(?:client|resource)\(\s*['"]s3['"]`},
				{Expr: `\bs3\.NewFromConfig\(`},
				{Expr: `\bPutObjectCommand\(`},
			},
			Imports:  []string{"aws-sdk", "@aws-sdk/client-s3", "boto3", "aws-sdk-go", "service/s3"},
			Packages: []string{"@aws-sdk/client-s3", "github.com/aws/aws-sdk-go-v2/service/s3"},
		},
		{
			Name: "firebase", Type: architecture.TypeService, Layer: ext, Purpose: "backend as a service",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `\binitializeApp\(`},
				{Expr: `\bfirebase\.(?:auth|messaging|storage|analytics)\(`},
				{Expr: `\bFirebaseApp\.configure\(`},
				{Expr: `\bFirebase\.initializeApp\(`},
				{Expr: `\bfirebase_admin\.initialize_app\(`},
			},
			Imports:  []string{"firebase"},
			Packages: []string{"firebase", "firebase-admin", "firebase_core", "firebase.google.com/go"},
		},
		{
			Name: "sentry", Type: architecture.TypeService, Layer: ext, Purpose: "error monitoring",
			Connection: architecture.ConnObserves,
			Patterns: []Pattern{
				{Expr: `\bSentry\.init\(`},
				{Expr: `\bsentry_sdk\.init\(`},
				{Expr: `\bsentry\.Init\(`},
				{Expr: `\bSentrySDK\.start\b`},
				{Expr: `\bSentryFlutter\.init\(`},
			},
			Imports:  []string{"sentry"},
			Packages: []string{"@sentry/node", "@sentry/react", "@sentry/nextjs", "sentry-sdk", "sentry_flutter", "github.com/getsentry/sentry-go"},
		},
		{
			Name: "segment", Type: architecture.TypeService, Layer: ext, Purpose: "product analytics",
			Connection: architecture.ConnObserves,
			Patterns: []Pattern{
				{Expr: `\banalytics\.track\(`},
				{Expr: `\bnew Analytics\(\s*\{?\s*writeKey`},
				{Expr: `\bAnalyticsBrowser\.load\(`},
			},
			Imports:  []string{"segment", "analytics-node"},
			Packages: []string{"@segment/analytics-node", "@segment/analytics-next", "analytics-python"},
		},
		{
			Name: "posthog", Type: architecture.TypeService, Layer: ext, Purpose: "product analytics",
			Connection: architecture.ConnObserves,
			Patterns: []Pattern{
				{Expr: `\bposthog\.capture\(`},
				{Expr: `\bnew PostHog\(`},
				{Expr: `\bposthog\.init\(`},
			},
			Imports:  []string{"posthog"},
			Packages: []string{"posthog-js", "posthog-node", "posthog"},
		},
		{
			Name: "auth0", Type: architecture.TypeService, Layer: ext, Purpose: "authentication",
			Critical: true, Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `\bcreateAuth0Client\(`},
				{Expr: `\bnew Auth0Client\(`},
				{Expr: `\bAuth0Provider\b`},
				{Expr: `[\w-]+\.auth0\.com`, InString: true},
			},
			Imports:  []string{"auth0"},
			Packages: []string{"@auth0/auth0-react", "@auth0/nextjs-auth0", "auth0"},
		},
		{
			Name: "slack", Type: architecture.TypeService, Layer: ext, Purpose: "chat notifications",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `hooks\.slack\.com/services`, InString: true},
				{Expr: `\bnew WebClient\(`},
				{Expr: `\bslack\.New\(`},
			},
			Imports:  []string{"slack"},
			Packages: []string{"@slack/web-api", "slack_sdk", "github.com/slack-go/slack"},
		},
		{
			Name: "github-api", Type: architecture.TypeService, Layer: ext, Purpose: "source hosting api",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `api\.github\.com`, InString: true},
				{Expr: `\bnew Octokit\(`},
				{Expr: `\bgithub\.NewClient\(`},
			},
			Imports:  []string{"octokit", "go-github", "github"},
			Packages: []string{"@octokit/rest", "octokit", "github.com/google/go-github"},
		},
		{
			Name: "google-maps", Type: architecture.TypeService, Layer: ext, Purpose: "maps and geocoding",
			Connection: architecture.ConnServiceCall,
			Patterns: []Pattern{
				{Expr: `maps\.googleapis\.com`, InString: true},
				{Expr: `\bnew google\.maps\.\w+\(`},
				{Expr: `\bGoogleMap\(`},
			},
			Packages: []string{"@googlemaps/js-api-loader", "google_maps_flutter", "googlemaps"},
		},
	})
}

func databases() []*Signature {
	return mustCompile([]*Signature{
		{
			Name: "postgresql", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "relational database",
			Critical: true, Connection: architecture.ConnStores, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `postgres(?:ql)?://`, InString: true},
				{Expr: `\bpsycopg2?\.connect\(`},
				{Expr: `\bsql\.Open\(\s*"(?:postgres|pgx)"`},
				{Expr: `\bpgxpool\.(?:New|Connect)\w*\(`},
				{Expr: `\bpgx\.Connect\(`},
				{Expr: `\bnew pg\.(?:Pool|Client)\(`},
				{Expr: `\bpostgres\.Open\(`},
			},
			Imports:  []string{"pg", "psycopg", "pgx", "lib/pq", "postgres"},
			Packages: []string{"pg", "postgres", "psycopg2", "psycopg2-binary", "psycopg", "asyncpg", "github.com/jackc/pgx", "github.com/lib/pq", "gorm.io/driver/postgres"},
			Images:   []string{"postgres", "postgis", "timescaledb"},
		},
		{
			Name: "mysql", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "relational database",
			Critical: true, Connection: architecture.ConnStores, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `mysql://`, InString: true},
				{Expr: `\bmysql\.createConnection\(`},
				{Expr: `\bmysql\.createPool\(`},
				{Expr: `\bsql\.Open\(\s*"mysql"`},
				{Expr: `\bpymysql\.connect\(`},
				{Expr: `\bmysql\.connector\.connect\(`},
			},
			Imports:  []string{"mysql"},
			Packages: []string{"mysql", "mysql2", "pymysql", "mysql-connector-python", "github.com/go-sql-driver/mysql"},
			Images:   []string{"mysql", "mariadb"},
		},
		{
			Name: "mongodb", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "document database",
			Critical: true, Connection: architecture.ConnStores, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `mongodb(?:\+srv)?://`, InString: true},
				{Expr: `\bnew MongoClient\(`},
				{Expr: `\bMongoClient\(`},
				{Expr: `\bmongoose\.connect\(`},
				{Expr: `\bmongo\.Connect\(`},
			},
			Imports:  []string{"mongo", "mongoose", "pymongo"},
			Packages: []string{"mongodb", "mongoose", "pymongo", "motor", "go.mongodb.org/mongo-driver"},
			Images:   []string{"mongo", "mongodb"},
		},
		{
			Name: "redis", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "cache and key-value store",
			Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `rediss?://`, InString: true},
				{Expr: `\bredis\.(?:NewClient|NewClusterClient|createClient|Redis|StrictRedis|from_url)\(`},
				{Expr: `\bnew Redis\(`},
				{Expr: `\bRedis\.new\b`},
			},
			Imports:  []string{"redis", "ioredis"},
			Packages: []string{"redis", "ioredis", "github.com/redis/go-redis", "github.com/go-redis/redis"},
			Images:   []string{"redis", "redis-stack", "valkey", "keydb"},
		},
		{
			Name: "sqlite", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "embedded database",
			Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `\bsqlite3\.connect\(`},
				{Expr: `\bsql\.Open\(\s*"sqlite3?"`},
				{Expr: `\bnew sqlite3\.Database\(`},
				{Expr: `\bopenDatabase\(`},
			},
			Imports:  []string{"sqlite"},
			Packages: []string{"sqlite3", "better-sqlite3", "sqflite", "modernc.org/sqlite", "github.com/mattn/go-sqlite3"},
		},
		{
			Name: "dynamodb", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "managed key-value database",
			Critical: true, Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `\bnew DynamoDBClient\(`},
				{Expr: `\bnew AWS\.DynamoDB`},
				{Expr: `boto3\.(?:client|resource)\(\s*['"]dynamodb['"]`},
				{Expr: `\bdynamodb\.NewFromConfig\(`},
			},
			Imports:  []string{"dynamodb", "boto3", "aws-sdk"},
			Packages: []string{"@aws-sdk/client-dynamodb", "github.com/aws/aws-sdk-go-v2/service/dynamodb"},
		},
		{
			Name: "elasticsearch", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "search index",
			Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `\belasticsearch\.NewClient\(`},
				{Expr: `\bElasticsearch\(`},
				{Expr: `\bnew Client\(\s*\{\s*node:`},
			},
			Imports:  []string{"elasticsearch", "elastic"},
			Packages: []string{"@elastic/elasticsearch", "elasticsearch", "github.com/elastic/go-elasticsearch"},
			Images:   []string{"elasticsearch", "opensearch"},
		},
		{
			Name: "firestore", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "document database",
			Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `\bgetFirestore\(`},
				{Expr: `\bfirestore\.Client\(`},
				{Expr: `\bFirebaseFirestore\.instance\b`},
				{Expr: `\bFirestore\.firestore\(\)`},
				{Expr: `\bfirestore\.NewClient\(`},
			},
			Imports:  []string{"firestore", "firebase"},
			Packages: []string{"@google-cloud/firestore", "cloud_firestore", "cloud.google.com/go/firestore"},
		},
		{
			Name: "supabase", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "hosted postgres",
			Critical: true, Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `[\w-]+\.supabase\.co`, InString: true},
				{Expr: `\bsupabase\.from\(`},
				{Expr: `\bSupabase\.initialize\(`},
			},
			Imports:  []string{"supabase"},
			Packages: []string{"@supabase/supabase-js", "supabase", "supabase_flutter"},
		},
		{
			Name: "prisma", Type: architecture.TypeDatabase, Layer: dbl, Purpose: "orm",
			Connection: architecture.ConnStores,
			Patterns: []Pattern{
				{Expr: `\bnew PrismaClient\(`},
				{Expr: `\bprisma\.\w+\.(?:findMany|findUnique|findFirst|create|update|upsert|delete)\(`},
			},
			Imports:  []string{"@prisma/client", "prisma"},
			Packages: []string{"@prisma/client", "prisma"},
		},
	})
}

func queues() []*Signature {
	pub, sub := architecture.ConnPublishes, architecture.ConnConsumes
	return mustCompile([]*Signature{
		{
			Name: "kafka", Type: architecture.TypeQueue, Layer: qul, Purpose: "event streaming",
			Critical: true, Connection: pub,
			Patterns: []Pattern{
				{Expr: `\bnew Kafka\(`},
				{Expr: `\bKafkaProducer\(`},
				{Expr: `\bKafkaConsumer\(`, Conn: sub},
				{Expr: `\bkafka\.NewWriter\(`},
				{Expr: `\bkafka\.NewReader\(`, Conn: sub},
				{Expr: `\bsarama\.NewSyncProducer\(`},
				{Expr: `\bsarama\.NewConsumer(?:Group)?\(`, Conn: sub},
				{Expr: `\bkafka\.(?:producer|consumer)\(`},
			},
			Imports:  []string{"kafka", "sarama"},
			Packages: []string{"kafkajs", "kafka-python", "confluent-kafka", "github.com/segmentio/kafka-go", "github.com/IBM/sarama", "github.com/Shopify/sarama"},
			Images:   []string{"kafka", "cp-kafka", "redpanda"},
		},
		{
			Name: "rabbitmq", Type: architecture.TypeQueue, Layer: qul, Purpose: "message broker",
			Critical: true, Connection: pub,
			Patterns: []Pattern{
				{Expr: `amqps?://`, InString: true},
				{Expr: `\bamqp\.Dial\(`},
				{Expr: `\bamqp\.connect\(`},
				{Expr: `\bpika\.BlockingConnection\(`},
				{Expr: `\.basic_publish\(`},
				{Expr: `\.basic_consume\(`, Conn: sub},
				{Expr: `\bch\.Consume\(`, Conn: sub},
				{Expr: `\bch\.Publish(?:WithContext)?\(`},
			},
			Imports:  []string{"amqp", "pika", "rabbitmq"},
			Packages: []string{"amqplib", "pika", "github.com/rabbitmq/amqp091-go", "github.com/streadway/amqp"},
			Images:   []string{"rabbitmq"},
		},
		{
			Name: "aws-sqs", Type: architecture.TypeQueue, Layer: qul, Purpose: "managed queue",
			Connection: pub,
			Patterns: []Pattern{
				{Expr: `\bnew SQSClient\(`},
				{Expr: `\bSendMessageCommand\(`},
				{Expr: `\bReceiveMessageCommand\(`, Conn: sub},
				{Expr: `boto3\.(?:client|resource)\(\s*['"]sqs['"]`},
				{Expr: `\bsqs\.NewFromConfig\(`},
			},
			Imports:  []string{"sqs", "aws-sdk", "boto3"},
			Packages: []string{"@aws-sdk/client-sqs", "github.com/aws/aws-sdk-go-v2/service/sqs"},
		},
		{
			Name: "nats", Type: architecture.TypeQueue, Layer: qul, Purpose: "messaging",
			Connection: pub,
			Patterns: []Pattern{
				{Expr: `nats://`, InString: true},
				{Expr: `\bnats\.Connect\(`},
				{Expr: `\bnats\.connect\(`},
				{Expr: `\bnc\.Subscribe\(`, Conn: sub},
				{Expr: `\bnc\.Publish\(`},
			},
			Imports:  []string{"nats"},
			Packages: []string{"nats", "nats-py", "github.com/nats-io/nats.go"},
			Images:   []string{"nats"},
		},
		{
			Name: "google-pubsub", Type: architecture.TypeQueue, Layer: qul, Purpose: "managed messaging",
			Connection: pub,
			Patterns: []Pattern{
				{Expr: `\bpubsub\.NewClient\(`},
				{Expr: `\bnew PubSub\(`},
				{Expr: `\bpubsub_v1\.PublisherClient\(`},
				{Expr: `\bpubsub_v1\.SubscriberClient\(`, Conn: sub},
			},
			Imports:  []string{"pubsub"},
			Packages: []string{"@google-cloud/pubsub", "google-cloud-pubsub", "cloud.google.com/go/pubsub"},
		},
		{
			Name: "bullmq", Type: architecture.TypeQueue, Layer: qul, Purpose: "job queue",
			Connection: pub, Base: 0.75,
			Patterns: []Pattern{
				{Expr: `\bnew Queue\(`},
				{Expr: `\bnew Worker\(`, Conn: sub},
			},
			Imports:  []string{"bullmq", "bull"},
			Packages: []string{"bullmq", "bull"},
		},
		{
			Name: "celery", Type: architecture.TypeQueue, Layer: qul, Purpose: "task queue",
			Connection: pub,
			Patterns: []Pattern{
				{Expr: `\bCelery\(`},
				{Expr: `@(?:app|celery)\.task\b`, Conn: sub},
				{Expr: `\.apply_async\(`},
			},
			Imports:  []string{"celery"},
			Packages: []string{"celery"},
		},
	})
}

func llms() []*Signature {
	call := architecture.ConnServiceCall
	return mustCompile([]*Signature{
		{
			Name: "openai", Type: architecture.TypeLLM, Layer: ext, Purpose: "language model api",
			Critical: true, Connection: call, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `\bnew OpenAI\(`},
				{Expr: `\bOpenAI\(\)`},
				{Expr: `\bopenai\.(?:ChatCompletion|Completion|Embedding)\.create\(`},
				{Expr: `\bopenai\.NewClient\(`},
				{Expr: `\.chat\.completions\.create\(`},
				{Expr: `api\.openai\.com`, InString: true},
			},
			Imports:  []string{"openai"},
			Packages: []string{"openai", "github.com/sashabaranov/go-openai", "github.com/openai/openai-go", "dart_openai"},
		},
		{
			Name: "anthropic", Type: architecture.TypeLLM, Layer: ext, Purpose: "language model api",
			Critical: true, Connection: call, Base: 0.9,
			Patterns: []Pattern{
				{Expr: `\bnew Anthropic\(`},
				{Expr: `\banthropic\.Anthropic\(`},
				{Expr: `\banthropic\.NewClient\(`},
				{Expr: `\.messages\.create\(`, Base: 0.75},
				{Expr: `api\.anthropic\.com`, InString: true},
			},
			Imports:  []string{"anthropic"},
			Packages: []string{"@anthropic-ai/sdk", "anthropic", "github.com/anthropics/anthropic-sdk-go"},
		},
		{
			Name: "gemini", Type: architecture.TypeLLM, Layer: ext, Purpose: "language model api",
			Connection: call,
			Patterns: []Pattern{
				{Expr: `\bnew GoogleGenerativeAI\(`},
				{Expr: `\bgenai\.(?:configure|GenerativeModel|NewClient)\(`},
				{Expr: `generativelanguage\.googleapis\.com`, InString: true},
			},
			Imports:  []string{"generative-ai", "genai"},
			Packages: []string{"@google/generative-ai", "@google/genai", "google-generativeai", "google-genai", "github.com/google/generative-ai-go"},
		},
		{
			Name: "cohere", Type: architecture.TypeLLM, Layer: ext, Purpose: "language model api",
			Connection: call,
			Patterns: []Pattern{
				{Expr: `\bcohere\.Client\(`},
				{Expr: `\bnew CohereClient\(`},
			},
			Imports:  []string{"cohere"},
			Packages: []string{"cohere", "cohere-ai"},
		},
		{
			Name: "mistral", Type: architecture.TypeLLM, Layer: ext, Purpose: "language model api",
			Connection: call,
			Patterns: []Pattern{
				{Expr: `\bMistralClient\(`},
				{Expr: `\bnew Mistral\(`},
			},
			Imports:  []string{"mistral"},
			Packages: []string{"@mistralai/mistralai", "mistralai"},
		},
		{
			Name: "ollama", Type: architecture.TypeLLM, Layer: ext, Purpose: "local language model",
			Connection: call,
			Patterns: []Pattern{
				{Expr: `\bollama\.(?:chat|generate|embeddings)\(`},
				{Expr: `localhost:11434`, InString: true},
			},
			Imports:  []string{"ollama"},
			Packages: []string{"ollama", "github.com/ollama/ollama"},
		},
		{
			Name: "aws-bedrock", Type: architecture.TypeLLM, Layer: ext, Purpose: "managed language models",
			Connection: call,
			Patterns: []Pattern{
				{Expr: `\bnew BedrockRuntimeClient\(`},
				{Expr: `boto3\.client\(\s*['"]bedrock-runtime['"]`},
				{Expr: `\bbedrockruntime\.NewFromConfig\(`},
			},
			Imports:  []string{"bedrock"},
			Packages: []string{"@aws-sdk/client-bedrock-runtime", "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"},
		},
	})
}

func frameworks() []*Signature {
	imp := architecture.ConnImports
	return mustCompile([]*Signature{
		{
			Name: "react", Type: architecture.TypeFramework, Layer: fe, Purpose: "ui library", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bfrom\s+['"]react['"]`},
				{Expr: `\bReact\.createElement\(`},
				{Expr: `\bReactDOM\.(?:render|createRoot)\(`},
			},
			Packages: []string{"react"},
		},
		{
			Name: "nextjs", Type: architecture.TypeFramework, Layer: fe, Purpose: "react framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bfrom\s+['"]next/`},
				{Expr: `\bgetServerSideProps\b`},
				{Expr: `\bNextResponse\.`},
			},
			Packages: []string{"next"},
		},
		{
			Name: "vue", Type: architecture.TypeFramework, Layer: fe, Purpose: "ui framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bfrom\s+['"]vue['"]`},
				{Expr: `\bdefineComponent\(`},
			},
			Packages: []string{"vue", "nuxt"},
		},
		{
			Name: "angular", Type: architecture.TypeFramework, Layer: fe, Purpose: "ui framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `@NgModule\(`},
				{Expr: `\bfrom\s+['"]@angular/core['"]`},
			},
			Packages: []string{"@angular/core"},
		},
		{
			Name: "express", Type: architecture.TypeFramework, Layer: be, Purpose: "http server", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bexpress\(\)`},
				{Expr: `\brequire\(\s*['"]express['"]\s*\)`},
				{Expr: `\bfrom\s+['"]express['"]`},
			},
			Packages: []string{"express"},
		},
		{
			Name: "nestjs", Type: architecture.TypeFramework, Layer: be, Purpose: "http server", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bfrom\s+['"]@nestjs/`},
				{Expr: `\bNestFactory\.create\(`},
			},
			Packages: []string{"@nestjs/core"},
		},
		{
			Name: "django", Type: architecture.TypeFramework, Layer: be, Purpose: "web framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `^\s*from\s+django[.\s]`},
				{Expr: `\bmodels\.Model\b`},
			},
			Packages: []string{"django"},
		},
		{
			Name: "flask", Type: architecture.TypeFramework, Layer: be, Purpose: "web framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bFlask\(__name__\)`},
				{Expr: `^\s*from\s+flask\s+import`},
			},
			Packages: []string{"flask"},
		},
		{
			Name: "fastapi", Type: architecture.TypeFramework, Layer: be, Purpose: "web framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bFastAPI\(`},
				{Expr: `^\s*from\s+fastapi\s+import`},
			},
			Packages: []string{"fastapi"},
		},
		{
			Name: "gin", Type: architecture.TypeFramework, Layer: be, Purpose: "http server", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bgin\.(?:Default|New)\(\)`},
				{Expr: `\*gin\.Context\b`},
			},
			Imports:  []string{"gin-gonic/gin"},
			Packages: []string{"github.com/gin-gonic/gin"},
		},
		{
			Name: "echo", Type: architecture.TypeFramework, Layer: be, Purpose: "http server", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\becho\.New\(\)`},
				{Expr: `\becho\.Context\b`},
			},
			Imports:  []string{"labstack/echo"},
			Packages: []string{"github.com/labstack/echo"},
		},
		{
			Name: "spring", Type: architecture.TypeFramework, Layer: be, Purpose: "application framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `@SpringBootApplication\b`},
				{Expr: `@RestController\b`},
			},
			Imports: []string{"springframework"},
		},
		{
			Name: "rails", Type: architecture.TypeFramework, Layer: be, Purpose: "web framework", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\bRails\.application\b`},
				{Expr: `<\s*ApplicationController\b`},
				{Expr: `<\s*ActiveRecord::Base\b`},
			},
			Packages: []string{"rails"},
		},
		{
			Name: "flutter", Type: architecture.TypeFramework, Layer: fe, Purpose: "ui toolkit", Connection: imp,
			Patterns: []Pattern{
				{Expr: `\brunApp\(`},
				{Expr: `\bextends\s+(?:StatelessWidget|StatefulWidget)\b`},
			},
			Imports:  []string{"package:flutter/"},
			Packages: []string{"flutter"},
		},
		{
			Name: "swiftui", Type: architecture.TypeFramework, Layer: fe, Purpose: "ui toolkit", Connection: imp,
			Patterns: []Pattern{
				{Expr: `^\s*import\s+SwiftUI\b`},
				{Expr: `:\s*View\s*\{`},
			},
		},
	})
}
