package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	cryptoutil "hrrecords/internal/platform/crypto"
	"hrrecords/internal/platform/querier"
)

const uniqueViolation = "23505"

const selectColumns = `
    SELECT id, name, father_name, spouse_name, current_place, current_post, current_address,
           phone_numbers, permanent_same_as_current, permanent_place, permanent_post, permanent_address,
           emergency_contact_name, emergency_contact_relation, emergency_contact_phone,
           police_station, experience, job_post, employment_status, joining_date, exit_date,
           essid, photo_path, date_of_birth, uan, uan_enc, esiip, esiip_enc, created_at, updated_at
    FROM employees`

type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

func (s *Store) Create(ctx context.Context, emp Employee) (Employee, error) {
	uanPlain, uanEnc, err := s.sealOptional("uan", emp.UAN)
	if err != nil {
		return Employee{}, err
	}
	esiipPlain, esiipEnc, err := s.sealOptional("esiip", emp.ESIIP)
	if err != nil {
		return Employee{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO employees (name, father_name, spouse_name, current_place, current_post, current_address,
      phone_numbers, permanent_same_as_current, permanent_place, permanent_post, permanent_address,
      emergency_contact_name, emergency_contact_relation, emergency_contact_phone, police_station,
      experience, job_post, employment_status, joining_date, exit_date, essid, photo_path,
      date_of_birth, uan, uan_enc, esiip, esiip_enc)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
    RETURNING id
  `,
		emp.Name, emp.FatherName, emp.SpouseName, emp.CurrentPlace, emp.CurrentPost, emp.CurrentAddress,
		emp.PhoneNumbers, emp.PermanentSameAsCurrent, emp.PermanentPlace, emp.PermanentPost, emp.PermanentAddress,
		emp.EmergencyContactName, emp.EmergencyContactRelation, emp.EmergencyContactPhone, emp.PoliceStation,
		emp.Experience, emp.JobPost, string(emp.EmploymentStatus), emp.JoiningDate, emp.ExitDate, emp.ESSID, emp.PhotoPath,
		emp.DateOfBirth, uanPlain, uanEnc, esiipPlain, esiipEnc,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		return Employee{}, mapWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	emp, err := s.scanOne(s.DB.QueryRow(ctx, selectColumns+" WHERE id = $1", id))
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) GetByESSID(ctx context.Context, essid string) (Employee, error) {
	return s.scanOne(s.DB.QueryRow(ctx, selectColumns+" WHERE essid = $1", essid))
}

func (s *Store) List(ctx context.Context, filter FilterOptions, page Page) ([]Employee, error) {
	page = page.Normalize()
	where, args := buildFilter(filter)
	query := selectColumns + where + fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())
	return s.scanMany(ctx, query, args...)
}

func (s *Store) All(ctx context.Context, filter FilterOptions) ([]Employee, error) {
	where, args := buildFilter(filter)
	return s.scanMany(ctx, selectColumns+where+" ORDER BY created_at DESC, id DESC", args...)
}

func (s *Store) Count(ctx context.Context, filter FilterOptions) (int64, error) {
	where, args := buildFilter(filter)
	var total int64
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[EmploymentStatus]int64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employment_status, COUNT(1)
    FROM employees
    GROUP BY employment_status
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[EmploymentStatus]int64, len(Statuses))
	for _, status := range Statuses {
		out[status] = 0
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[EmploymentStatus(status)] = count
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id int64, emp Employee) (Employee, error) {
	uanPlain, uanEnc, err := s.sealOptional("uan", emp.UAN)
	if err != nil {
		return Employee{}, err
	}
	esiipPlain, esiipEnc, err := s.sealOptional("esiip", emp.ESIIP)
	if err != nil {
		return Employee{}, err
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $1, father_name = $2, spouse_name = $3, current_place = $4, current_post = $5,
        current_address = $6, phone_numbers = $7, permanent_same_as_current = $8, permanent_place = $9,
        permanent_post = $10, permanent_address = $11, emergency_contact_name = $12,
        emergency_contact_relation = $13, emergency_contact_phone = $14, police_station = $15,
        experience = $16, job_post = $17, employment_status = $18, joining_date = $19, exit_date = $20,
        essid = $21, photo_path = $22, date_of_birth = $23, uan = $24, uan_enc = $25, esiip = $26,
        esiip_enc = $27, updated_at = now()
    WHERE id = $28
  `,
		emp.Name, emp.FatherName, emp.SpouseName, emp.CurrentPlace, emp.CurrentPost,
		emp.CurrentAddress, emp.PhoneNumbers, emp.PermanentSameAsCurrent, emp.PermanentPlace,
		emp.PermanentPost, emp.PermanentAddress, emp.EmergencyContactName,
		emp.EmergencyContactRelation, emp.EmergencyContactPhone, emp.PoliceStation,
		emp.Experience, emp.JobPost, string(emp.EmploymentStatus), emp.JoiningDate, emp.ExitDate,
		emp.ESSID, emp.PhotoPath, emp.DateOfBirth, uanPlain, uanEnc, esiipPlain,
		esiipEnc, id,
	)
	if err != nil {
		return Employee{}, mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return Employee{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) SetPhotoPath(ctx context.Context, id int64, photoPath *string) (Employee, error) {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET photo_path = $1, updated_at = now()
    WHERE id = $2
  `, photoPath, id)
	if err != nil {
		return Employee{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Employee{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanMany(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		emp, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) scanOne(row pgx.Row) (Employee, error) {
	emp, err := s.scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) scan(row pgx.Row) (Employee, error) {
	var emp Employee
	var status string
	var uanPlain, esiipPlain *string
	var uanEnc, esiipEnc []byte
	if err := row.Scan(
		&emp.ID, &emp.Name, &emp.FatherName, &emp.SpouseName, &emp.CurrentPlace, &emp.CurrentPost, &emp.CurrentAddress,
		&emp.PhoneNumbers, &emp.PermanentSameAsCurrent, &emp.PermanentPlace, &emp.PermanentPost, &emp.PermanentAddress,
		&emp.EmergencyContactName, &emp.EmergencyContactRelation, &emp.EmergencyContactPhone,
		&emp.PoliceStation, &emp.Experience, &emp.JobPost, &status, &emp.JoiningDate, &emp.ExitDate,
		&emp.ESSID, &emp.PhotoPath, &emp.DateOfBirth, &uanPlain, &uanEnc, &esiipPlain, &esiipEnc,
		&emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	emp.EmploymentStatus = EmploymentStatus(status)
	var err error
	if emp.UAN, err = openOptional(s.Crypto, "uan", uanEnc, uanPlain); err != nil {
		return Employee{}, fmt.Errorf("employee %d: %w", emp.ID, err)
	}
	if emp.ESIIP, err = openOptional(s.Crypto, "esiip", esiipEnc, esiipPlain); err != nil {
		return Employee{}, fmt.Errorf("employee %d: %w", emp.ID, err)
	}
	return emp, nil
}

// sealOptional returns the plaintext and ciphertext column values. With a
// configured key the plaintext column is left NULL.
func (s *Store) sealOptional(field string, value *string) (*string, []byte, error) {
	if value == nil || !s.Crypto.Configured() {
		return value, nil, nil
	}
	sealed, err := s.Crypto.SealString(field, *value)
	if err != nil {
		return nil, nil, fmt.Errorf("seal %s: %w", field, err)
	}
	return nil, sealed, nil
}

// openOptional prefers the ciphertext column. A ciphertext that cannot be
// opened is an error, never a silent fallback to the plaintext column.
func openOptional(crypto *cryptoutil.Service, field string, encrypted []byte, plain *string) (*string, error) {
	if len(encrypted) == 0 {
		return plain, nil
	}
	decrypted, err := crypto.OpenString(field, encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFieldUnreadable, field, err)
	}
	return &decrypted, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateESSID, pgErr.ConstraintName)
	}
	return err
}
