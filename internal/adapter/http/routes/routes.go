package routes

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	_ "fortunepay/docs" // This will be auto-generated
	"fortunepay/internal/adapter/http/handlers"
	repository2 "fortunepay/internal/adapter/persistence/repository"
	"fortunepay/internal/infrastructure/database"
	"fortunepay/internal/infrastructure/payments"
	"fortunepay/internal/usecase"
	"fortunepay/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

const defaultPort = 8080

// Run will start the server
func Run() {
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	port := defaultPort
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		port = v
	}
	err := router.Run(":" + strconv.Itoa(port))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes() {
	orderRepo, userRepo := buildStores()

	entitlementUseCase := usecase.NewEntitlementUseCase(userRepo)
	paymentUseCase := usecase.NewPaymentUseCase(orderRepo, buildGateways(), entitlementUseCase)

	paymentHandler := handlers.NewPaymentHandler(paymentUseCase)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRoutes(v1, paymentHandler)
}

// buildStores picks the order/user backends from ORDER_STORE/USER_STORE.
// Memory is the default; "dynamodb" switches to the durable variant, with a
// single DynamoDB client shared by both repositories.
func buildStores() (interfaces.IOrderRepository, interfaces.IUserRepository) {
	var orderRepo interfaces.IOrderRepository = repository2.NewOrderMemoryRepository()
	var userRepo interfaces.IUserRepository = repository2.NewUserMemoryRepository()

	wantOrderDynamo := storeBackend("ORDER_STORE") == "dynamodb"
	wantUserDynamo := storeBackend("USER_STORE") == "dynamodb"
	if !wantOrderDynamo && !wantUserDynamo {
		log.Printf("[routes] using in-memory stores")
		return orderRepo, userRepo
	}

	ddb := database.ConnectDynamoDB()
	if wantOrderDynamo {
		orderRepo = repository2.NewOrderDynamoRepository(ddb)
		log.Printf("[routes] order store: dynamodb")
	}
	if wantUserDynamo {
		userRepo = repository2.NewUserDynamoRepository(ddb)
		log.Printf("[routes] user store: dynamodb")
	}
	return orderRepo, userRepo
}

func storeBackend(key string) string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(key)))
}

// buildGateways constructs every provider adapter whose credentials are
// present. A missing provider only logs; orders against it later fail with
// "payment method unavailable" instead of crashing the process at startup.
func buildGateways() []interfaces.IPaymentGateway {
	var gateways []interfaces.IPaymentGateway

	if g, err := payments.NewWeChatNativeGateway(context.Background()); err != nil {
		log.Printf("WeChat Native gateway not configured: %v", err)
	} else {
		gateways = append(gateways, g)
	}
	if g, err := payments.NewEpayGateway(); err != nil {
		log.Printf("Epay gateway not configured: %v", err)
	} else {
		gateways = append(gateways, g)
	}
	if g, err := payments.NewPayhubGateway(); err != nil {
		log.Printf("Payhub gateway not configured: %v", err)
	} else {
		gateways = append(gateways, g)
	}
	if g, err := payments.NewFormPayGateway(); err != nil {
		log.Printf("Form gateway not configured: %v", err)
	} else {
		gateways = append(gateways, g)
	}

	return gateways
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
