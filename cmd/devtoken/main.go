package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"seswa/internal/config"
	"seswa/internal/domain"
	jwtsvc "seswa/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "student_demo", "user id")
	first := flag.String("first", "", "first name")
	last := flag.String("last", "", "last name")
	role := flag.String("role", string(domain.RoleStudent), "student, alumni or admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	switch domain.UserRole(*role) {
	case domain.RoleStudent, domain.RoleAlumni, domain.RoleAdmin:
	default:
		zap.NewExample().Fatal("unknown role", zap.String("role", *role))
	}

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(jwtsvc.Claims{
		UserID:    *userID,
		FirstName: *first,
		LastName:  *last,
		Role:      *role,
	})
	if err != nil {
		zap.NewExample().Fatal("sign token failed", zap.Error(err))
	}
	fmt.Println(token)
}
