package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Role repository errors
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrPrivilegeNotFound = errors.New("privilege not found")
)

// RoleRepository defines the interface for role and privilege data access.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	GetPrivilegeByName(ctx context.Context, name string) (*Privilege, error)
	CreatePrivilege(ctx context.Context, privilege *Privilege) error
	AssignPrivilege(ctx context.Context, roleID, privilegeID uuid.UUID) error
}

// roleRepository implements RoleRepository using PostgreSQL
type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new RoleRepository instance
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

// GetByName retrieves a role by its unique name, privileges included.
func (r *roleRepository) GetByName(ctx context.Context, name string) (*Role, error) {
	role := &Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name, &role.Description)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM privileges p
		JOIN role_privileges rp ON rp.privilege_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`, role.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Privilege
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		role.Privileges = append(role.Privileges, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return role, nil
}

// CreateRole inserts a new role.
func (r *roleRepository) CreateRole(ctx context.Context, role *Role) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`,
		role.Name, role.Description,
	).Scan(&role.ID)
}

// GetPrivilegeByName retrieves a privilege by its unique name.
func (r *roleRepository) GetPrivilegeByName(ctx context.Context, name string) (*Privilege, error) {
	p := &Privilege{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM privileges WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Description)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrivilegeNotFound
		}
		return nil, err
	}
	return p, nil
}

// CreatePrivilege inserts a new privilege.
func (r *roleRepository) CreatePrivilege(ctx context.Context, privilege *Privilege) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO privileges (name, description) VALUES ($1, $2) RETURNING id`,
		privilege.Name, privilege.Description,
	).Scan(&privilege.ID)
}

// AssignPrivilege links a privilege to a role. Re-assigning is a no-op.
func (r *roleRepository) AssignPrivilege(ctx context.Context, roleID, privilegeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_privileges (role_id, privilege_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roleID, privilegeID,
	)
	return err
}
