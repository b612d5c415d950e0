package server

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gocommunity/internal/auth"
	"gocommunity/internal/database"
	"gocommunity/internal/mail"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	_ "github.com/joho/godotenv/autoload"
	"github.com/lxzan/event_emitter"
)

type Server struct {
	port int
	auth auth.Service
	db   database.Service
	mail mail.Service
	s3   *s3.S3
}

var globalEmitter = event_emitter.New[*Socket](&event_emitter.Config{
	BucketNum:  16,
	BucketSize: 128,
})

func NewS3() *s3.S3 {
	sess := session.Must(session.NewSession(&aws.Config{
		Endpoint:         aws.String(os.Getenv("S3_ENDPOINT")),
		Region:           aws.String(os.Getenv("S3_REGION")),
		Credentials:      credentials.NewStaticCredentials(os.Getenv("S3_KEY_ID"), os.Getenv("S3_APP_KEY"), ""),
		S3ForcePathStyle: aws.Bool(true),
	}))

	return s3.New(sess)
}

func NewServer() *http.Server {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		panic(err)
	}

	sessionStore := auth.NewCookieStore(auth.StoreOptions{
		Secret:   os.Getenv("SESSION_SECRET"),
		MaxAge:   86400 * 30,
		Secure:   false,
		HttpOnly: true,
	})

	NewServer := &Server{
		port: port,
		auth: auth.New(sessionStore),
		db:   database.New(),
		mail: mail.New(),
		s3:   NewS3(),
	}

	serverTLSCert, err := tls.LoadX509KeyPair("cert/cert.pem", "cert/key.pem")
	if err != nil {
		log.Fatalf("Error loading certificate and key file: %v", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverTLSCert},
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		TLSConfig:    tlsConfig,
	}

	return server
}
