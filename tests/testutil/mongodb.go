package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	infamongo "github.com/lllypuk/taskboard/internal/infrastructure/mongodb"
)

const (
	mongoTimeout      = 10 * time.Second
	mongoPingAttempts = 5
	mongoPingBackoff  = 500 * time.Millisecond
	maxDBNameLength   = 40
	testDBPrefix      = "taskboard_test_"
)

// sharedMongo is reused across runs; Reuse needs a fixed container name.
var sharedMongo = &sharedContainer{
	port:  "27017/tcp",
	reuse: true,
	request: testcontainers.ContainerRequest{
		Image:        "mongo:8",
		Name:         "taskboard-test-mongodb",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "admin",
			"MONGO_INITDB_ROOT_PASSWORD": "admin123",
		},
		WaitingFor: wait.ForLog("Waiting for connections").WithStartupTimeout(containerStartupTimeout),
	},
}

// SetupTestMongoDB returns a fresh database with every index created.
func SetupTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	db := SetupSharedTestMongoDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	if err := infamongo.CreateAllIndexes(ctx, db); err != nil {
		t.Fatalf("create indexes: %v", err)
	}
	return db
}

// SetupSharedTestMongoDB returns a fresh, index-less database named after the
// test.
func SetupSharedTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	_, db := SetupSharedTestMongoDBWithClient(t)
	return db
}

// SetupSharedTestMongoDBWithClient is SetupSharedTestMongoDB plus the client.
// The database is dropped when the test ends.
func SetupSharedTestMongoDBWithClient(t *testing.T) (*mongo.Client, *mongo.Database) {
	t.Helper()
	requireDocker(t)

	addr, err := sharedMongo.address()
	if err != nil {
		t.Fatalf("mongodb container: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://admin:admin123@" + addr))
	if err != nil {
		t.Fatalf("connect mongodb: %v", err)
	}
	if pingErr := pingMongo(client); pingErr != nil {
		t.Fatalf("ping mongodb after %d attempts: %v", mongoPingAttempts, pingErr)
	}

	db := client.Database(testDBName(t.Name()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return client, db
}

// pingMongo retries while a reused container is still accepting connections.
func pingMongo(client *mongo.Client) error {
	var err error
	for range mongoPingAttempts {
		ctx, cancel := context.WithTimeout(context.Background(), mongoPingBackoff*4)
		err = client.Ping(ctx, nil)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(mongoPingBackoff)
	}
	return err
}

// testDBName derives a valid database name from the test name, hashing long
// names so subtests stay distinct.
func testDBName(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(testName)
	if len(name) > maxDBNameLength {
		sum := sha256.Sum256([]byte(testName))
		name = name[:20] + "_" + hex.EncodeToString(sum[:])[:12]
	}
	return testDBPrefix + name
}
