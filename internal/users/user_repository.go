package users

import (
	"fmt"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

type UserRepository interface {
	PersistUser(req models.CreateUserRequest, hashedPassword []byte) (*models.User, error)
	GetUser(id int) (*models.User, error)
	GetUsers() ([]models.User, error)
	UpdateUser(id int, changes *models.UserChanges) error
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

// PersistUser creates the account and its role profile in one transaction,
// so a failed profile insert never leaves an orphaned login behind.
func (r *userRepositoryImpl) PersistUser(req models.CreateUserRequest, hashedPassword []byte) (*models.User, error) {
	user := models.User{
		Username: req.Username,
		Fullname: req.Fullname,
		Role:     req.Role,
	}

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		query := tx.Insert("users").
			Rows(goqu.Record{
				"username":      req.Username,
				"password_hash": string(hashedPassword),
				"fullname":      req.Fullname,
				"role":          req.Role,
			}).
			Returning("id")

		if _, err := query.Executor().ScanVal(&user.ID); err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return custom_error.WrapDBError("username "+req.Username, string(pqErr.Code))
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		return r.persistProfile(tx, user.ID, req)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepositoryImpl) persistProfile(tx *goqu.TxDatabase, userID int, req models.CreateUserRequest) error {
	var table string
	var row goqu.Record

	switch req.Role {
	case security.RoleVolunteer:
		table = "volunteers"
		row = goqu.Record{
			"user_id":  userID,
			"fullname": req.Fullname,
			"phone":    req.Phone,
		}
	case security.RoleRestaurant:
		table = "restaurants"
		row = goqu.Record{
			"user_id":   userID,
			"name":      req.Name,
			"address":   req.Address,
			"latitude":  req.Latitude,
			"longitude": req.Longitude,
		}
	case security.RoleNgo:
		table = "ngos"
		row = goqu.Record{
			"user_id":             userID,
			"name":                req.Name,
			"registration_number": req.RegistrationNumber,
			"address":             req.Address,
			"latitude":            req.Latitude,
			"longitude":           req.Longitude,
		}
	default:
		// Admins have no profile table.
		return nil
	}

	if _, err := tx.Insert(table).Rows(row).Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError(req.Role+" profile", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert %s profile: %w", req.Role, err)
	}

	return nil
}

func (r *userRepositoryImpl) GetUsers() ([]models.User, error) {
	var users []models.User
	query := r.repository.GoquDBWrapper.Select("id", "username", "fullname", "role").
		From("users")

	if err := query.Executor().ScanStructs(&users); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return users, nil
}

func (r *userRepositoryImpl) GetUser(id int) (*models.User, error) {
	var user models.User
	query := r.repository.GoquDBWrapper.Select("id", "username", "fullname", "password_hash", "role").
		From("users").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "user", ID: id}
	}

	return &user, nil
}

func (r *userRepositoryImpl) UpdateUser(id int, changes *models.UserChanges) error {
	record := goqu.Record{}
	if changes.PasswordHash != nil {
		record["password_hash"] = *changes.PasswordHash
	}
	if changes.Role != nil {
		record["role"] = *changes.Role
	}

	result, err := r.repository.GoquDBWrapper.Update("users").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return &custom_error.NotFoundError{Resource: "user", ID: id}
	}

	return nil
}
