// Command adduser appends a user to the directory file, for
// bootstrapping the first admin account before the server has one.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"trip-planner/internal/domain"
	"trip-planner/internal/store"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	usersFile := flag.String("users", "users.json", "path to the user directory file")
	username := flag.String("username", "", "username to add")
	password := flag.String("password", "", "password for the new user")
	role := flag.String("role", domain.RoleUser, "role: user or admin")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != domain.RoleUser && *role != domain.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("could not hash password: %v", err)
	}

	st := store.NewFileStore("", *usersFile)
	_, err = st.WithExclusiveUsers(func(dir *domain.UserDirectory) error {
		if dir.Find(*username) != nil {
			return fmt.Errorf("username %q already exists", *username)
		}
		dir.Users = append(dir.Users, domain.User{
			Username:     *username,
			PasswordHash: string(hash),
			Role:         *role,
		})
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Added %s %q\n", *role, *username)
}
