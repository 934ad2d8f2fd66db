package validators

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,strongpassword"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type GeneratePINRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyPINRequest struct {
	Email string `json:"email" validate:"required,email"`
	PIN   string `json:"pin" validate:"len=6,digits"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}
