package model

import "testing"

func TestCreateUserInputValidate(t *testing.T) {
	valid := CreateUserInput{
		Username: "operator1",
		Email:    "op@pawnshop.local",
		Password: "secret-pass",
		Role:     RoleStaff,
		PIN:      "1234",
	}

	tests := []struct {
		name    string
		mutate  func(*CreateUserInput)
		wantErr bool
	}{
		{"валидный оператор", func(u *CreateUserInput) {}, false},
		{"валидный администратор", func(u *CreateUserInput) { u.Role = RoleAdmin }, false},
		{"неизвестная роль", func(u *CreateUserInput) { u.Role = "owner" }, true},
		{"PIN короче четырех цифр", func(u *CreateUserInput) { u.PIN = "123" }, true},
		{"PIN с буквами", func(u *CreateUserInput) { u.PIN = "12ab" }, true},
		{"короткий пароль", func(u *CreateUserInput) { u.Password = "short" }, true},
		{"некорректный email", func(u *CreateUserInput) { u.Email = "not-an-email" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			err := input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateCustomerRequestValidate(t *testing.T) {
	valid := CreateCustomerRequest{
		Phone:          "+15551234567",
		FirstName:      "Ivan",
		LastName:       "Petrov",
		Email:          "ivan@example.com",
		DocumentNumber: "AB1234567",
	}

	tests := []struct {
		name    string
		mutate  func(*CreateCustomerRequest)
		wantErr bool
	}{
		{"валидный клиент", func(r *CreateCustomerRequest) {}, false},
		{"без email допустимо", func(r *CreateCustomerRequest) { r.Email = "" }, false},
		{"телефон с буквами", func(r *CreateCustomerRequest) { r.Phone = "555-CALL-NOW" }, true},
		{"слишком короткий телефон", func(r *CreateCustomerRequest) { r.Phone = "12345" }, true},
		{"без имени", func(r *CreateCustomerRequest) { r.FirstName = "" }, true},
		{"без документа", func(r *CreateCustomerRequest) { r.DocumentNumber = "" }, true},
		{"битый email", func(r *CreateCustomerRequest) { r.Email = "ivan@" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtensionRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		months  int
		fee     int64
		wantErr bool
	}{
		{"один месяц", 1, 100, false},
		{"три месяца с максимальной платой", 3, 500, false},
		{"бесплатное продление", 2, 0, false},
		{"ноль месяцев", 0, 100, true},
		{"четыре месяца", 4, 100, true},
		{"плата выше потолка", 1, 501, true},
		{"отрицательная плата", 1, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ExtensionRequest{Months: tt.months, FeePerMonth: tt.fee}
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaymentCounted(t *testing.T) {
	p := Payment{}
	if !p.Counted() {
		t.Error("обычный платеж должен учитываться")
	}
	p.IsVoided = true
	if p.Counted() {
		t.Error("отмененный платеж не должен учитываться")
	}
}

func TestTransactionStatusIsTerminal(t *testing.T) {
	terminal := []TransactionStatus{StatusRedeemed, StatusForfeited, StatusSold}
	open := []TransactionStatus{StatusActive, StatusOverdue, StatusExtended}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("статус %s должен быть терминальным", s)
		}
	}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("статус %s не должен быть терминальным", s)
		}
	}
}
