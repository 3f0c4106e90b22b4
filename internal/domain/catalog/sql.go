package catalog

// SQL templates for the rental catalog schema (PostgreSQL dialect).
// Parameters are bound positionally, never interpolated. Numeric bounds are
// cast to numeric so that Real arguments compare against integer columns.
const (
	filmsSelect = `SELECT film.title, language.name AS language, category.name AS category
FROM film
LEFT JOIN film_category ON film_category.film_id = film.film_id
LEFT JOIN category ON category.category_id = film_category.category_id
LEFT JOIN language ON language.language_id = film.language_id`

	filmsOrder = `
ORDER BY film.title, language.name`

	SQLFilmsByCategoryID = filmsSelect + `
WHERE category.category_id = $1` + filmsOrder

	SQLFilmsByCategoryName = filmsSelect + `
WHERE category.name ~ $1` + filmsOrder

	SQLFilmsByCategoryNameFold = filmsSelect + `
WHERE category.name ~* $1` + filmsOrder

	SQLFilmCountByCategory = `SELECT category.name AS category, COUNT(*) AS count
FROM film
LEFT JOIN film_category ON film_category.film_id = film.film_id
LEFT JOIN category ON category.category_id = film_category.category_id
WHERE category.category_id = $1
GROUP BY category.name`

	SQLFilmCountByLengthRange = `SELECT film.length, COUNT(*) AS count
FROM film
WHERE film.length BETWEEN $1::numeric AND $2::numeric
GROUP BY film.length
ORDER BY film.length`

	SQLCustomersByCity = `SELECT city.city, customer.first_name, customer.last_name
FROM customer
LEFT JOIN address ON address.address_id = customer.address_id
LEFT JOIN city ON city.city_id = address.city_id
WHERE city.city = $1
ORDER BY customer.last_name, customer.first_name`

	SQLAvgRentalAmountByLength = `SELECT film.length, AVG(payment.amount) AS avg
FROM film
LEFT JOIN inventory ON inventory.film_id = film.film_id
LEFT JOIN rental ON rental.inventory_id = inventory.inventory_id
LEFT JOIN payment ON payment.rental_id = rental.rental_id
WHERE film.length = $1::numeric
GROUP BY film.length`

	SQLCustomersByTotalRentalLength = `SELECT customer.first_name, customer.last_name, SUM(film.length) AS sum
FROM customer
LEFT JOIN rental ON rental.customer_id = customer.customer_id
LEFT JOIN inventory ON inventory.inventory_id = rental.inventory_id
LEFT JOIN film ON film.film_id = inventory.film_id
GROUP BY customer.customer_id
HAVING SUM(film.length) >= $1::numeric
ORDER BY SUM(film.length), customer.last_name, customer.first_name`

	SQLCategoryLengthStatistics = `SELECT category.name AS category, AVG(film.length) AS avg, SUM(film.length) AS sum,
	MIN(film.length) AS min, MAX(film.length) AS max
FROM film
LEFT JOIN film_category ON film_category.film_id = film.film_id
LEFT JOIN category ON category.category_id = film_category.category_id
WHERE category.name = $1
GROUP BY category.name`

	SQLFilmCastByTitlePattern = `SELECT actor.first_name, actor.last_name
FROM film
LEFT JOIN film_actor ON film_actor.film_id = film.film_id
LEFT JOIN actor ON actor.actor_id = film_actor.actor_id
WHERE film.title ~* $1
ORDER BY actor.last_name, actor.first_name`
)
