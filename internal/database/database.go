package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gocommunity/internal/models"
	"gocommunity/internal/utils"

	_ "github.com/joho/godotenv/autoload"
	"github.com/surrealdb/surrealdb.go"
)

type Service interface {
	// users & sessions
	CreateUser(user models.User) (string, error)
	GetUser(id, email string) (models.User, error)
	ListUsers() ([]models.User, error)
	ChangeDisplayName(userId, displayName string) error
	ChangePassword(userId, passwordHash string) error
	SetAdmin(userId string, isAdmin bool) error
	UpdateAvatar(userId, avatarURL string) (string, error)
	CreateSession(session models.Session) (models.Session, error)
	GetSession(id string) (models.Session, error)
	DeleteSession(id string) error
	CreateMagicLink(userId string) (string, error)
	RedeemMagicLink(token string) (string, error)

	// community feed
	ListChatCategories() ([]models.ChatCategory, error)
	CreateChatCategory(name string) (models.ChatCategory, error)
	ListMessages(categoryId string) ([]models.Message, error)
	GetMessage(id string) (models.Message, error)
	CreateMessage(message models.Message) (models.Message, error)
	DeleteMessage(id string) error
	SetPinned(id string, pinned bool) error
	IncrementLikes(id string) (int, error)
	CreateComment(comment models.Comment) (models.Comment, error)

	// polls
	ListPolls(categoryId string) ([]models.Poll, error)
	ListPollOptions(pollIds []string) ([]models.PollOption, error)
	ListPollVotes(optionIds []string) ([]models.PollVote, error)
	CreatePoll(poll models.Poll, options []string) (models.Poll, error)
	CreateVote(optionId, userId string) error
	DeletePoll(id string) error

	// webhooks
	ListWebhooks() ([]models.Webhook, error)
	GetWebhookByType(whType string) (models.Webhook, error)
	CreateWebhook(webhook models.Webhook) (models.Webhook, error)
	UpdateWebhook(webhook models.Webhook) error
	DeleteWebhook(id string) error

	// libraries
	ListAITools() ([]models.AITool, error)
	CreateAITool(tool models.AITool) (models.AITool, error)
	UpdateAITool(tool models.AITool) error
	DeleteAITool(id string) error
	ListToolCategories() ([]models.LibraryCategory, error)
	CreateToolCategory(name, userId string) (models.LibraryCategory, error)
	ListBlueprints() ([]models.Blueprint, error)
	CreateBlueprint(blueprint models.Blueprint) (models.Blueprint, error)
	UpdateBlueprint(blueprint models.Blueprint) error
	DeleteBlueprint(id string) error
	ListBlueprintCategories() ([]models.LibraryCategory, error)
	CreateBlueprintCategory(name, userId string) (models.LibraryCategory, error)
	ListClasses() ([]models.Class, error)
	CreateClass(class models.Class) (models.Class, error)
	UpdateClass(class models.Class) error
	DeleteClass(id string) error
	ListClassCategories() ([]models.LibraryCategory, error)
	CreateClassCategory(name, userId string) (models.LibraryCategory, error)
}

type service struct {
	db *surrealdb.DB
}

var (
	username  = os.Getenv("DB_USERNAME")
	password  = os.Getenv("DB_PASSWORD")
	namespace = os.Getenv("DB_NAMESPACE")
	database  = os.Getenv("DB_DATABASE")
	url       = os.Getenv("DB_URL")
)

func New() Service {
	db, err := surrealdb.New(url)
	if err != nil {
		panic(err)
	}

	if _, err := db.Signin(map[string]interface{}{
		"user": username,
		"pass": password,
	}); err != nil {
		panic(err)
	}

	if _, err := db.Use(namespace, database); err != nil {
		panic(err)
	}

	s := &service{db: db}
	return s
}

func (s *service) GetUser(id, email string) (models.User, error) {
	var data interface{}
	var err error

	if id != "" {
		data, err = s.db.Select(id)
	} else if email != "" {
		data, err = s.db.Query("SELECT * FROM profiles WHERE email = $email", map[string]interface{}{
			"email": email,
		})
	}

	if err != nil {
		return models.User{}, err
	}

	if email != "" {
		var users []models.User
		if ok, err := surrealdb.UnmarshalRaw(data, &users); !ok {
			if err != nil {
				return models.User{}, err
			}

			return models.User{}, fmt.Errorf("no user found")
		}
		return users[0], nil
	}

	var user models.User
	if err := surrealdb.Unmarshal(data, &user); err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (s *service) CreateUser(user models.User) (string, error) {
	var users []models.User

	data, err := s.db.Create("profiles", user)
	if err != nil {
		return "", err
	}

	err = surrealdb.Unmarshal(data, &users)
	if err != nil {
		return "", err
	}

	return users[0].ID, nil
}

func (s *service) ListUsers() ([]models.User, error) {
	res, err := s.db.Query("SELECT id, email, display_name, avatar_url, is_admin, phone, niche, created_at FROM profiles ORDER BY created_at ASC", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	users, err := surrealdb.SmartUnmarshal[[]models.User](res, err)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *service) ChangeDisplayName(userId, displayName string) error {
	_, err := s.db.Query(`UPDATE $userId SET display_name=$displayName`, map[string]string{
		"userId":      userId,
		"displayName": displayName,
	})
	return err
}

func (s *service) ChangePassword(userId, passwordHash string) error {
	_, err := s.db.Query(`UPDATE $userId SET password=$password`, map[string]string{
		"userId":   userId,
		"password": passwordHash,
	})
	return err
}

func (s *service) SetAdmin(userId string, isAdmin bool) error {
	_, err := s.db.Query(`UPDATE $userId SET is_admin=$isAdmin`, map[string]interface{}{
		"userId":  userId,
		"isAdmin": isAdmin,
	})
	return err
}

func (s *service) UpdateAvatar(userId, avatarURL string) (string, error) {
	res, err := s.db.Query(`UPDATE ONLY $userId SET avatar_url=$avatarURL RETURN avatar_url`, map[string]string{
		"userId":    userId,
		"avatarURL": avatarURL,
	})
	if err != nil {
		return "", err
	}

	user, err := surrealdb.SmartUnmarshal[models.User](res, err)
	if err != nil {
		return "", err
	}

	return user.AvatarURL, nil
}

func (s *service) CreateSession(session models.Session) (models.Session, error) {
	// the record id doubles as the cookie token, so it gets its own entropy
	id, err := utils.GenerateRandomId(48)
	if err != nil {
		return models.Session{}, err
	}

	res, err := s.db.Query(`
    CREATE ONLY type::thing("sessions", $id) CONTENT {
      ip_address: $ip_address,
      user_agent: $user_agent,
      user_id: $user_id,
      created_at: time::now(),
      expires_at: time::now() + 30d,
    };
    `, map[string]string{
		"id":         id,
		"ip_address": session.IpAddress,
		"user_agent": session.UserAgent,
		"user_id":    session.UserId,
	})
	if err != nil {
		log.Println(err)
		return models.Session{}, fmt.Errorf("an error occured while creating the session")
	}

	sess, err := surrealdb.SmartUnmarshal[models.Session](res, err)
	if err != nil {
		log.Println(err)
		return models.Session{}, err
	}

	return sess, nil
}

func (s *service) GetSession(sessionId string) (models.Session, error) {
	data, err := s.db.Select(sessionId)
	if err != nil {
		return models.Session{}, err
	}

	var session models.Session
	err = surrealdb.Unmarshal(data, &session)
	if err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (s *service) DeleteSession(sessionId string) error {
	_, err := s.db.Delete(sessionId)
	if err != nil {
		return err
	}

	return nil
}

// ErrInvalidMagicLink is returned when a sign in token is unknown, expired
// or already redeemed.
var ErrInvalidMagicLink = fmt.Errorf("this sign in link is invalid or has expired")

// CreateMagicLink mints a single-use sign in token for the user. The token
// is the record id, same scheme as sessions.
func (s *service) CreateMagicLink(userId string) (string, error) {
	token, err := utils.GenerateRandomId(48)
	if err != nil {
		return "", err
	}

	_, err = s.db.Query(`
    CREATE ONLY type::thing("magic_links", $token) CONTENT {
      user_id: $user_id,
      used: false,
      created_at: time::now(),
      expires_at: time::now() + 15m,
    };
    `, map[string]string{
		"token":   token,
		"user_id": userId,
	})
	if err != nil {
		log.Println(err)
		return "", fmt.Errorf("an error occured while creating the sign in link")
	}

	return token, nil
}

// RedeemMagicLink consumes the token and returns the user it belongs to.
// The used flag flips inside the transaction, so a token redeems once.
func (s *service) RedeemMagicLink(token string) (string, error) {
	res, err := s.db.Query(`
      BEGIN TRANSACTION;
      LET $link = (SELECT * FROM ONLY type::thing("magic_links", $token));

      IF $link = NONE OR $link.used OR $link.expires_at < time::now() {
          THROW "invalid link"
      };

      UPDATE ONLY type::thing("magic_links", $token) SET used = true;
      RETURN $link.user_id;
      COMMIT TRANSACTION;
    `, map[string]string{
		"token": token,
	})
	if err != nil {
		if strings.Contains(err.Error(), "invalid link") {
			return "", ErrInvalidMagicLink
		}
		log.Println(err)
		return "", fmt.Errorf("an error occured while verifying the sign in link")
	}

	userId, err := surrealdb.SmartUnmarshal[string](res, err)
	if err != nil {
		log.Println(err)
		return "", err
	}

	return userId, nil
}
